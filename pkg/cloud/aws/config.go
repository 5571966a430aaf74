package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/buildbarn/bb-segment-storage/pkg/util"
)

// StaticCredentials contains a fixed access key to use, instead of
// relying on the SDK's default credential chain.
type StaticCredentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// AssumeRole contains the role that should be assumed through STS
// after obtaining the initial credentials.
type AssumeRole struct {
	RoleARN         string `json:"roleArn"`
	RoleSessionName string `json:"roleSessionName"`
}

// SessionConfiguration contains options for connecting to AWS
// services.
type SessionConfiguration struct {
	Region            string             `json:"region"`
	StaticCredentials *StaticCredentials `json:"staticCredentials"`
	AssumeRole        *AssumeRole        `json:"assumeRole"`
}

// S3Configuration contains options for connecting to S3 or an S3
// compatible object store.
type S3Configuration struct {
	Session SessionConfiguration `json:"session"`
	// Endpoint overrides the URL of the service. This is needed to
	// connect to S3 compatible stores such as MinIO.
	Endpoint     string `json:"endpoint"`
	UsePathStyle bool   `json:"usePathStyle"`
}

// NewConfigFromConfiguration creates a new AWS SDK config object based
// on options specified in a session configuration message. The
// resulting config object can be used to access AWS services such as
// S3.
func NewConfigFromConfiguration(ctx context.Context, configuration *SessionConfiguration) (aws.Config, error) {
	var loadOptions []func(*config.LoadOptions) error
	if configuration.Region != "" {
		loadOptions = append(loadOptions, config.WithRegion(configuration.Region))
	}
	if staticCredentials := configuration.StaticCredentials; staticCredentials != nil {
		loadOptions = append(loadOptions,
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					staticCredentials.AccessKeyID,
					staticCredentials.SecretAccessKey,
					"")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return aws.Config{}, util.StatusWrap(err, "Failed to load AWS configuration")
	}
	if assumeRole := configuration.AssumeRole; assumeRole != nil {
		cfg.Credentials = aws.NewCredentialsCache(
			stscreds.NewAssumeRoleProvider(
				sts.NewFromConfig(cfg),
				assumeRole.RoleARN,
				func(o *stscreds.AssumeRoleOptions) {
					if assumeRole.RoleSessionName != "" {
						o.RoleSessionName = assumeRole.RoleSessionName
					}
				}))
	}
	return cfg, nil
}

// NewS3ClientFromConfiguration creates an S3 client based on options
// specified in a configuration message.
func NewS3ClientFromConfiguration(ctx context.Context, configuration *S3Configuration) (*s3.Client, error) {
	cfg, err := NewConfigFromConfiguration(ctx, &configuration.Session)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if configuration.Endpoint != "" {
			o.BaseEndpoint = aws.String(configuration.Endpoint)
		}
		o.UsePathStyle = configuration.UsePathStyle
	}), nil
}
