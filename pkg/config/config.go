package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/go-viper/mapstructure/v2"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrNotFound is returned when no configuration file could be located.
var ErrNotFound = errors.New("configuration file not found")

type Config struct {
	Azure       AzureConfig       `json:"azure"`
	Application ApplicationConfig `json:"application"`
	Debug       bool              `json:"debug"`
}

type AzureConfig struct {
	TenantId       string `json:"tenant-id"`
	SubscriptionId string `json:"subscription-id"`
}

// SubscriptionScope returns the full resource ID of the subscription, which
// is the default scope for role assignments.
func (a AzureConfig) SubscriptionScope() string {
	return fmt.Sprintf("/subscriptions/%s", a.SubscriptionId)
}

type ApplicationConfig struct {
	// Name is the display name shared by the application registration and
	// its service principal.
	Name         string       `json:"name"`
	SecretName   string       `json:"secret-name"`
	Roles        []string     `json:"roles"`
	SecretExpiry SecretExpiry `json:"secret-expiry"`
}

type SecretExpiry struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// Configuration options
const (
	AzureTenantId         = "azure.tenant-id"
	AzureSubscriptionId   = "azure.subscription-id"
	ApplicationName       = "application.name"
	ApplicationSecretName = "application.secret-name"
	ApplicationRoles      = "application.roles"
	SecretExpiryYears     = "application.secret-expiry.years"
	SecretExpiryMonths    = "application.secret-expiry.months"
	SecretExpiryDays      = "application.secret-expiry.days"
	DebugEnabled          = "debug"
)

func init() {
	// Automatically read configuration options from environment variables.
	// e.g. --azure.tenant-id will be configurable using AZSP_AZURE_TENANT_ID.
	viper.SetEnvPrefix("AZSP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Read configuration file from working directory and/or /etc.
	// File formats supported include JSON, TOML, YAML, HCL, envfile and Java properties config files
	viper.SetConfigName("azsp")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/azsp")

	flag.String(AzureTenantId, "", "Tenant ID for Azure AD")
	flag.String(AzureSubscriptionId, "", "Subscription ID used as the default scope for role assignments")

	flag.String(ApplicationName, "", "Display name for the application registration and service principal")
	flag.String(ApplicationSecretName, "", "Display name for the client secret")
	flag.StringSlice(ApplicationRoles, nil, "Role names to assign to the service principal, in order")

	flag.Int(SecretExpiryYears, 2, "Years until the client secret expires")
	flag.Int(SecretExpiryMonths, 0, "Months until the client secret expires")
	flag.Int(SecretExpiryDays, 0, "Days until the client secret expires")

	flag.Bool(DebugEnabled, false, "Debug mode toggle")
}

// Print out all configuration options except secret stuff.
func (c Config) Print(redacted []string) {
	ok := func(key string) bool {
		for _, forbiddenKey := range redacted {
			if forbiddenKey == key {
				return false
			}
		}
		return true
	}

	var keys sort.StringSlice = viper.AllKeys()

	keys.Sort()
	for _, key := range keys {
		if ok(key) {
			log.Printf("%s: %s", key, viper.GetString(key))
		} else {
			log.Printf("%s: ***REDACTED***", key)
		}
	}
}

func (c Config) Validate(required []string) error {
	present := func(key string) bool {
		for _, requiredKey := range required {
			if requiredKey == key {
				return len(viper.GetString(requiredKey)) > 0
			}
		}
		return true
	}
	var keys sort.StringSlice = viper.AllKeys()
	errs := make([]string, 0)

	keys.Sort()
	for _, key := range keys {
		if !present(key) {
			errs = append(errs, key)
		}
	}
	for _, key := range errs {
		log.Printf("required key '%s' not configured", key)
	}
	if len(errs) > 0 {
		return errors.New("missing configuration values")
	}

	if !govalidator.IsUUID(c.Azure.TenantId) {
		return fmt.Errorf("%s: '%s' is not a valid UUID", AzureTenantId, c.Azure.TenantId)
	}
	if !govalidator.IsUUID(c.Azure.SubscriptionId) {
		return fmt.Errorf("%s: '%s' is not a valid UUID", AzureSubscriptionId, c.Azure.SubscriptionId)
	}
	return nil
}

func decoderHook(dc *mapstructure.DecoderConfig) {
	dc.TagName = "json"
	dc.ErrorUnused = true
}

func New() (*Config, error) {
	var err error
	var cfg Config

	err = viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, err
	}

	// The flag set registered in init is shared with the command layer,
	// which has already parsed the command line by the time New runs.
	err = viper.BindPFlags(flag.CommandLine)
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&cfg, decoderHook)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
