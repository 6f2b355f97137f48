package infra

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

type ReactAppStackProps struct {
	awscdk.StackProps
	App AppConfig
}

// NewReactAppStack wraps a single ReactApp in its own stack and exports the
// addresses a caller needs after deployment.
func NewReactAppStack(scope constructs.Construct, id string, props *ReactAppStackProps) (awscdk.Stack, error) {
	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	appProps := &ReactAppProps{
		BucketName:                 props.App.BucketName,
		SourcePath:                 props.App.SourcePath,
		BuildCommand:               props.App.BuildCommand,
		BuildOutputPath:            props.App.BuildOutputPath,
		SkipBuild:                  props.App.SkipBuild,
		SkipUpload:                 props.App.SkipUpload,
		RemovalPolicy:              props.App.ResolvedRemovalPolicy(),
		WithCloudfrontDistribution: props.App.WithCloudfrontDistribution,
	}
	// A nil map assigned to the interface field would read as a present
	// payload; only a config section in the file triggers the upload.
	if props.App.Config != nil {
		appProps.Config = props.App.Config
	}
	if d := props.App.Domain; d != nil {
		appProps.Domain = &DomainProps{
			DomainName:     d.DomainName,
			Aliases:        d.Aliases,
			CertificateArn: d.CertificateArn,
			HostedZone: awsroute53.HostedZone_FromHostedZoneAttributes(stack, jsii.String("HostedZone"), &awsroute53.HostedZoneAttributes{
				HostedZoneId: jsii.String(d.HostedZoneID),
				ZoneName:     jsii.String(d.ZoneName),
			}),
		}
	}

	app, err := NewReactApp(stack, "react-app", appProps)
	if err != nil {
		return nil, err
	}

	awscdk.NewCfnOutput(stack, jsii.String("bucketName"), &awscdk.CfnOutputProps{
		Value: app.Bucket.BucketName(),
	})
	if app.Distribution != nil {
		awscdk.NewCfnOutput(stack, jsii.String("distributionDomainName"), &awscdk.CfnOutputProps{
			Value: app.Distribution.DistributionDomainName(),
		})
	}
	switch {
	case props.App.Domain != nil:
		awscdk.NewCfnOutput(stack, jsii.String("siteUrl"), &awscdk.CfnOutputProps{
			Value: jsii.String("https://" + props.App.Domain.DomainName),
		})
	case app.Distribution != nil:
		awscdk.NewCfnOutput(stack, jsii.String("siteUrl"), &awscdk.CfnOutputProps{
			Value: jsii.String("https://" + *app.Distribution.DistributionDomainName()),
		})
	default:
		awscdk.NewCfnOutput(stack, jsii.String("siteUrl"), &awscdk.CfnOutputProps{
			Value: app.Bucket.BucketWebsiteUrl(),
		})
	}

	return stack, nil
}
