package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath          string        `yaml:"dbPath"`
	ListenAddr      string        `yaml:"listenAddr"`
	Timezone        string        `yaml:"timezone"`
	VenueOpen       string        `yaml:"venueOpen"`
	VenueClose      string        `yaml:"venueClose"`
	InvoicesDir     string        `yaml:"invoicesDir"`
	BackupsDir      string        `yaml:"backupsDir"`
	BackupRetention int           `yaml:"backupRetention"`
	FAQSeedFile     string        `yaml:"faqSeedFile"`
	Payroll         PayrollConfig `yaml:"payroll"`
	POS             POSConfig     `yaml:"pos"`
	Line            LineConfig    `yaml:"line"`
}

type PayrollConfig struct {
	StandardWeeklyHours  float64 `yaml:"standardWeeklyHours"`
	WorkingDayMinHours   float64 `yaml:"workingDayMinHours"`
	MaxShiftHours        float64 `yaml:"maxShiftHours"`
	DedupeWindowMinutes  int     `yaml:"dedupeWindowMinutes"`
	ScheduleGraceMinutes int     `yaml:"scheduleGraceMinutes"`
	Concurrency          int     `yaml:"concurrency"`
}

type POSConfig struct {
	CardMethods           []string `yaml:"cardMethods"`
	ReconcileToleranceTHB float64  `yaml:"reconcileToleranceTHB"`
}

type LineConfig struct {
	ChannelToken     string `yaml:"channelToken"`
	DefaultRecipient string `yaml:"defaultRecipient"`
}

var (
	cfg     Config
	cfgPath string
	mu      sync.RWMutex
)

const DefaultPath = "./lengolf.yaml"

// LoadConfig reads the YAML config at path. A missing file is not an error:
// the defaults are returned so every command works on a fresh checkout.
// LENGOLF_DB and LENGOLF_LINE_TOKEN env vars override the file values.
func LoadConfig(path string) (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if path == "" {
		path = DefaultPath
	}
	cfgPath = path

	tempCfg := defaults()
	file, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(file, &tempCfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyDefaults(&tempCfg)
	applyEnv(&tempCfg)
	cfg = tempCfg
	return cfg, nil
}

// SaveConfig writes newCfg back to the path LoadConfig was called with.
func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	applyDefaults(&newCfg)
	out, err := yaml.Marshal(newCfg)
	if err != nil {
		return err
	}
	path := cfgPath
	if path == "" {
		path = DefaultPath
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// WriteDefault writes a fully populated default config file. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	out, err := yaml.Marshal(defaults())
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

// Location resolves the configured venue timezone. Bangkok has no DST, so
// a fixed +07:00 zone is an exact fallback when the tz database is absent.
func Location() *time.Location {
	mu.RLock()
	tz := cfg.Timezone
	mu.RUnlock()
	if tz == "" {
		tz = "Asia/Bangkok"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

func defaults() Config {
	return Config{
		DBPath:          "./lengolf.db",
		ListenAddr:      ":8090",
		Timezone:        "Asia/Bangkok",
		VenueOpen:       "10:00",
		VenueClose:      "23:00",
		InvoicesDir:     "./invoices",
		BackupsDir:      "./backups",
		BackupRetention: 14,
		FAQSeedFile:     "./faq_seed.yaml",
		Payroll: PayrollConfig{
			StandardWeeklyHours:  48,
			WorkingDayMinHours:   6,
			MaxShiftHours:        16,
			DedupeWindowMinutes:  3,
			ScheduleGraceMinutes: 15,
			Concurrency:          4,
		},
		POS: POSConfig{
			CardMethods:           []string{"card", "visa", "mastercard"},
			ReconcileToleranceTHB: 1.00,
		},
	}
}

func applyDefaults(c *Config) {
	def := defaults()
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.VenueOpen == "" {
		c.VenueOpen = def.VenueOpen
	}
	if c.VenueClose == "" {
		c.VenueClose = def.VenueClose
	}
	if c.InvoicesDir == "" {
		c.InvoicesDir = def.InvoicesDir
	}
	if c.BackupsDir == "" {
		c.BackupsDir = def.BackupsDir
	}
	if c.BackupRetention == 0 {
		c.BackupRetention = def.BackupRetention
	}
	if c.FAQSeedFile == "" {
		c.FAQSeedFile = def.FAQSeedFile
	}
	if c.Payroll.StandardWeeklyHours == 0 {
		c.Payroll.StandardWeeklyHours = def.Payroll.StandardWeeklyHours
	}
	if c.Payroll.WorkingDayMinHours == 0 {
		c.Payroll.WorkingDayMinHours = def.Payroll.WorkingDayMinHours
	}
	if c.Payroll.MaxShiftHours == 0 {
		c.Payroll.MaxShiftHours = def.Payroll.MaxShiftHours
	}
	if c.Payroll.DedupeWindowMinutes == 0 {
		c.Payroll.DedupeWindowMinutes = def.Payroll.DedupeWindowMinutes
	}
	if c.Payroll.ScheduleGraceMinutes == 0 {
		c.Payroll.ScheduleGraceMinutes = def.Payroll.ScheduleGraceMinutes
	}
	if c.Payroll.Concurrency == 0 {
		c.Payroll.Concurrency = def.Payroll.Concurrency
	}
	if len(c.POS.CardMethods) == 0 {
		c.POS.CardMethods = def.POS.CardMethods
	}
	if c.POS.ReconcileToleranceTHB == 0 {
		c.POS.ReconcileToleranceTHB = def.POS.ReconcileToleranceTHB
	}
}

func applyEnv(c *Config) {
	if v := os.Getenv("LENGOLF_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("LENGOLF_LINE_TOKEN"); v != "" {
		c.Line.ChannelToken = v
	}
}
