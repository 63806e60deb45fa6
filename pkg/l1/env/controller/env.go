// Package controller sets up the registrars a drive announces itself on.
package controller

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/comm/mqtt"
	"github.com/robotalks/dualdrive/pkg/l1/env"
)

// ControllerType is the type a drive registers as.
const ControllerType = "dualdrive"

// Config is where and how a drive registers.
type Config struct {
	Info l1.ControllerInfo

	// MQTTBrokerURL is like mqtt://host:port/topic-prefix, registration is
	// disabled when empty.
	MQTTBrokerURL string
}

var defaultConfig = Config{
	Info: l1.ControllerInfo{
		Ref:  l1.ControllerRef{Type: ControllerType},
		Meta: l1.ControllerMeta{Description: "differential drive"},
	},
	MQTTBrokerURL: "mqtt://localhost:1883/dualdrive/",
}

func init() {
	if val, ok := os.LookupEnv("DUALDRIVE_MQTT_URL"); ok {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("DUALDRIVE_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	}
	if val := os.Getenv("DUALDRIVE_DESC"); val != "" {
		defaultConfig.Info.Meta.Description = val
	}
	if val := os.Getenv("DUALDRIVE_LABELS"); val != "" {
		labels, err := ParseLabels(val)
		if err != nil {
			log.Fatalf("DUALDRIVE_LABELS: %v", err)
		}
		defaultConfig.Info.Meta.Labels = labels
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Drive type")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Drive ID, machine ID when empty")
	flag.StringVar(&defaultConfig.Info.Meta.Description, "desc", defaultConfig.Info.Meta.Description, "Description announced with the drive")
	flag.Var((*labelsFlag)(&defaultConfig.Info.Meta.Labels), "label", "Label KEY=VALUE announced with the drive, repeatable")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
}

// ParseLabels parses comma separated KEY=VALUE pairs.
func ParseLabels(s string) (map[string]string, error) {
	labels := make(map[string]string)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		if err := setLabel(labels, item); err != nil {
			return nil, err
		}
	}
	return labels, nil
}

func setLabel(labels map[string]string, item string) error {
	pos := strings.IndexByte(item, '=')
	if pos <= 0 {
		return fmt.Errorf("invalid label %q, expect KEY=VALUE", item)
	}
	labels[strings.TrimSpace(item[:pos])] = strings.TrimSpace(item[pos+1:])
	return nil
}

type labelsFlag map[string]string

func (f *labelsFlag) String() string {
	if f == nil || len(*f) == 0 {
		return ""
	}
	items := make([]string, 0, len(*f))
	for k, v := range *f {
		items = append(items, k+"="+v)
	}
	sort.Strings(items)
	return strings.Join(items, ",")
}

func (f *labelsFlag) Set(val string) error {
	if *f == nil {
		*f = make(labelsFlag)
	}
	return setLabel(*f, val)
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig copies the default config.
func NewConfig() *Config {
	conf := defaultConfig
	if len(defaultConfig.Info.Meta.Labels) > 0 {
		conf.Info.Meta.Labels = make(map[string]string, len(defaultConfig.Info.Meta.Labels))
		for k, v := range defaultConfig.Info.Meta.Labels {
			conf.Info.Meta.Labels[k] = v
		}
	}
	return &conf
}

// SetLabel adds a label to the announced meta.
func (c *Config) SetLabel(key, value string) *Config {
	if c.Info.Meta.Labels == nil {
		c.Info.Meta.Labels = make(map[string]string)
	}
	c.Info.Meta.Labels[key] = value
	return c
}

// Env holds the registrars of a drive.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrars   []l1.Registrar
}

// NewEnv creates the registrars from the config.
func (c *Config) NewEnv() (*Env, error) {
	if c.Info.Ref.ID == "" {
		c.Info.Ref.ID = env.MachineID()
	}
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("invalid drive ref %q", c.Info.Ref.Name())
	}
	e := &Env{Config: c}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("mqtt registrar: %w", err)
		}
		e.Registrars = append(e.Registrars, reg)
		e.RegistryURLs = append(e.RegistryURLs, c.MQTTBrokerURL)
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}
