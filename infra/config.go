package infra

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/spf13/viper"
)

// DeployConfig is the top-level deployment config file.
type DeployConfig struct {
	App AppConfig `mapstructure:"app"`
}

// AppConfig describes one react app deployment.
type AppConfig struct {
	BucketName      string `mapstructure:"bucket_name"`
	SourcePath      string `mapstructure:"source_path"`
	BuildCommand    string `mapstructure:"build_command"`
	BuildOutputPath string `mapstructure:"build_output_path"`
	SkipBuild       bool   `mapstructure:"skip_build"`
	SkipUpload      bool   `mapstructure:"skip_upload"`

	// RemovalPolicy is "destroy" or "retain".
	RemovalPolicy string `mapstructure:"removal_policy"`

	// Config is uploaded to the bucket as config.json when set.
	Config map[string]interface{} `mapstructure:"config"`

	Domain *DomainConfig `mapstructure:"domain"`

	WithCloudfrontDistribution bool `mapstructure:"with_cloudfront_distribution"`
}

// DomainConfig names the custom domain and its pre-existing certificate and
// hosted zone.
type DomainConfig struct {
	DomainName     string   `mapstructure:"domain_name"`
	Aliases        []string `mapstructure:"aliases"`
	CertificateArn string   `mapstructure:"certificate_arn"`
	HostedZoneID   string   `mapstructure:"hosted_zone_id"`
	ZoneName       string   `mapstructure:"zone_name"`
}

// LoadDeployConfig loads the deployment config from a YAML file, with
// CDK_REACT_APP_* environment variables overriding individual keys.
func LoadDeployConfig(path string) (*DeployConfig, error) {
	v := viper.New()

	v.SetDefault("app.build_command", defaultBuildCommand)
	v.SetDefault("app.removal_policy", "destroy")

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	v.SetEnvPrefix("CDK_REACT_APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg DeployConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config file %s: %w", path, err)
	}
	if err := cfg.App.validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

func (c AppConfig) validate() error {
	if c.BucketName == "" && c.Domain == nil {
		return fmt.Errorf("either app.bucket_name or app.domain is required")
	}
	if c.SourcePath == "" {
		return fmt.Errorf("app.source_path is required")
	}
	if c.Domain != nil {
		if c.Domain.DomainName == "" {
			return fmt.Errorf("app.domain.domain_name is required")
		}
		if c.Domain.CertificateArn == "" {
			return fmt.Errorf("app.domain.certificate_arn is required")
		}
		if c.Domain.HostedZoneID == "" || c.Domain.ZoneName == "" {
			return fmt.Errorf("app.domain.hosted_zone_id and app.domain.zone_name are required")
		}
	}
	switch strings.ToLower(c.RemovalPolicy) {
	case "", "destroy", "retain":
	default:
		return fmt.Errorf("app.removal_policy must be destroy or retain, got %q", c.RemovalPolicy)
	}
	return nil
}

// ResolvedRemovalPolicy maps the config string to the CDK removal policy.
func (c AppConfig) ResolvedRemovalPolicy() awscdk.RemovalPolicy {
	if strings.EqualFold(c.RemovalPolicy, "retain") {
		return awscdk.RemovalPolicy_RETAIN
	}
	return awscdk.RemovalPolicy_DESTROY
}
