package infra

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3assets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3deployment"
	"github.com/aws/aws-cdk-go/awscdk/v2/customresources"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const (
	// IndexDocument is the app entry document. It is never cached so that a
	// fresh deployment is picked up on the next page load, and it doubles as
	// the website error document so client-side routing works for any path.
	IndexDocument = "index.html"

	// ConfigObjectKey is the object key of the runtime configuration document
	// uploaded into the bucket when a config payload is given.
	ConfigObjectKey = "config.json"

	// NoCacheHeader forces revalidation of the entry document and config.json.
	NoCacheHeader = "max-age=0, no-cache, no-store, must-revalidate"

	defaultBuildCommand   = "npm run build"
	defaultBuildOutputDir = "build"
)

// DomainProps points the deployment at a custom domain. The certificate must
// already cover DomainName and all Aliases and must live in us-east-1, and the
// hosted zone must be authoritative for DomainName.
type DomainProps struct {
	DomainName     string
	Aliases        []string
	CertificateArn string
	HostedZone     awsroute53.IHostedZone
}

// ReactAppProps configures a single react app deployment.
type ReactAppProps struct {
	// BucketName names the website bucket. Overridden by Domain.DomainName
	// when a domain is given.
	BucketName string

	// SourcePath is the local react app directory the build command runs in.
	SourcePath string

	// BuildCommand defaults to "npm run build".
	BuildCommand string

	// BuildOutputPath defaults to <SourcePath>/build.
	BuildOutputPath string

	// SkipBuild skips the local build step, SkipUpload skips both asset
	// upload steps. The config.json upload is independent of both.
	SkipBuild  bool
	SkipUpload bool

	// RemovalPolicy defaults to DESTROY, which also auto-deletes objects when
	// the stack is torn down. RETAIN keeps the bucket and its content.
	RemovalPolicy awscdk.RemovalPolicy

	// Config, when non-nil, is serialized to JSON at deploy time and uploaded
	// to the bucket as config.json. Values may contain unresolved CDK tokens;
	// they resolve during deployment.
	Config interface{}

	// Domain serves the app from a custom domain. Implies a distribution.
	Domain *DomainProps

	// WithCloudfrontDistribution fronts the bucket with CloudFront even
	// without a custom domain.
	WithCloudfrontDistribution bool
}

// ReactApp exposes the provisioned resources for downstream composition.
// Distribution is nil when the deployment is bucket-only.
type ReactApp struct {
	constructs.Construct
	Bucket       awss3.Bucket
	Distribution awscloudfront.Distribution
}

// NewReactApp builds the react app at props.SourcePath and declares the
// resources that serve it: a bucket (public website bucket when bucket-only,
// private otherwise), optionally a CloudFront distribution reading the bucket
// through an origin access identity, optionally
// a Route53 alias record, the two upload steps, and the config.json upload.
// Uploads never prune, so redeployments overwrite but never delete objects.
//
// A failing build aborts the whole composition; no resources are declared.
func NewReactApp(scope constructs.Construct, id string, props *ReactAppProps) (*ReactApp, error) {
	bucketName := props.BucketName
	buildCommand := props.BuildCommand
	buildOutput := props.BuildOutputPath
	removalPolicy := props.RemovalPolicy
	withDistribution := props.WithCloudfrontDistribution || props.Domain != nil

	if props.Domain != nil {
		bucketName = props.Domain.DomainName
	}
	if buildCommand == "" {
		buildCommand = defaultBuildCommand
	}
	if buildOutput == "" {
		buildOutput = filepath.Join(props.SourcePath, defaultBuildOutputDir)
	}
	if removalPolicy == "" {
		removalPolicy = awscdk.RemovalPolicy_DESTROY
	}

	if !props.SkipBuild {
		if err := runBuild(props.SourcePath, buildCommand); err != nil {
			return nil, fmt.Errorf("react app %s: %w", id, err)
		}
	}

	construct := constructs.NewConstruct(scope, &id)

	bucketProps := &awss3.BucketProps{
		BucketName:        jsii.String(bucketName),
		RemovalPolicy:     removalPolicy,
		AutoDeleteObjects: jsii.Bool(removalPolicy == awscdk.RemovalPolicy_DESTROY),
	}
	if withDistribution {
		// Reads go through the distribution only. The bucket must not be a
		// website bucket here: S3Origin silently swaps a website bucket for
		// its public HTTP endpoint and drops the access identity. The
		// distribution's root object and error rewrites cover routing instead.
		bucketProps.BlockPublicAccess = awss3.BlockPublicAccess_BLOCK_ALL()
	} else {
		// Index and error document both point at the entry document so
		// client-side routing works for any path.
		bucketProps.WebsiteIndexDocument = jsii.String(IndexDocument)
		bucketProps.WebsiteErrorDocument = jsii.String(IndexDocument)
		bucketProps.PublicReadAccess = jsii.Bool(true)
	}
	bucket := awss3.NewBucket(construct, jsii.String("Bucket"), bucketProps)

	var distribution awscloudfront.Distribution
	if withDistribution {
		distribution = newDistribution(construct, bucket, props.Domain)
	}

	if !props.SkipUpload {
		// Hashed asset files are safe to cache with default metadata; the
		// entry document must be revalidated on every load.
		awss3deployment.NewBucketDeployment(construct, jsii.String("DeployAssets"), &awss3deployment.BucketDeploymentProps{
			Sources: &[]awss3deployment.ISource{
				awss3deployment.Source_Asset(jsii.String(buildOutput), &awss3assets.AssetOptions{
					Exclude: jsii.Strings(IndexDocument, ConfigObjectKey),
				}),
			},
			DestinationBucket: bucket,
			Prune:             jsii.Bool(false),
		})
		awss3deployment.NewBucketDeployment(construct, jsii.String("DeployIndex"), &awss3deployment.BucketDeploymentProps{
			Sources: &[]awss3deployment.ISource{
				awss3deployment.Source_Asset(jsii.String(buildOutput), &awss3assets.AssetOptions{
					Exclude: jsii.Strings("*", "!"+IndexDocument),
				}),
			},
			DestinationBucket: bucket,
			Prune:             jsii.Bool(false),
			CacheControl: &[]awss3deployment.CacheControl{
				awss3deployment.CacheControl_FromString(jsii.String(NoCacheHeader)),
			},
		})
	}

	if props.Config != nil {
		newConfigUpload(construct, bucket, props.Config)
	}

	return &ReactApp{
		Construct:    construct,
		Bucket:       bucket,
		Distribution: distribution,
	}, nil
}

func newDistribution(scope constructs.Construct, bucket awss3.Bucket, domain *DomainProps) awscloudfront.Distribution {
	identity := awscloudfront.NewOriginAccessIdentity(scope, jsii.String("OriginAccessIdentity"), &awscloudfront.OriginAccessIdentityProps{
		Comment: jsii.String("Access identity for " + *bucket.BucketName()),
	})
	bucket.AddToResourcePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:    jsii.Strings("s3:GetObject"),
		Resources:  &[]*string{bucket.ArnForObjects(jsii.String("*"))},
		Principals: &[]awsiam.IPrincipal{identity.GrantPrincipal()},
	}))

	distributionProps := &awscloudfront.DistributionProps{
		DefaultBehavior: &awscloudfront.BehaviorOptions{
			Origin: awscloudfrontorigins.NewS3Origin(bucket, &awscloudfrontorigins.S3OriginProps{
				OriginAccessIdentity: identity,
			}),
			ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
		},
		DefaultRootObject: jsii.String(IndexDocument),
		// S3 answers 403 for missing keys on a private bucket; both map to
		// the app root so client-side routing handles unknown paths.
		ErrorResponses: &[]*awscloudfront.ErrorResponse{
			{
				HttpStatus:         jsii.Number(403),
				ResponseHttpStatus: jsii.Number(200),
				ResponsePagePath:   jsii.String("/"),
			},
			{
				HttpStatus:         jsii.Number(404),
				ResponseHttpStatus: jsii.Number(200),
				ResponsePagePath:   jsii.String("/"),
			},
		},
	}
	if domain != nil {
		domainNames := append([]string{domain.DomainName}, domain.Aliases...)
		distributionProps.DomainNames = jsii.Strings(domainNames...)
		distributionProps.Certificate = awscertificatemanager.Certificate_FromCertificateArn(
			scope, jsii.String("Certificate"), jsii.String(domain.CertificateArn))
	}
	distribution := awscloudfront.NewDistribution(scope, jsii.String("Distribution"), distributionProps)

	if domain != nil {
		awsroute53.NewARecord(scope, jsii.String("AliasRecord"), &awsroute53.ARecordProps{
			Zone:       domain.HostedZone,
			RecordName: jsii.String(domain.DomainName),
			Target:     awsroute53.RecordTarget_FromAlias(awsroute53targets.NewCloudFrontTarget(distribution)),
		})
	}

	return distribution
}

// newConfigUpload declares a deploy-time putObject of the JSON-serialized
// config payload. ToJsonString defers serialization to deployment, so values
// that are CDK tokens resolve to their deployed values. The physical resource
// id changes every synth so the upload reruns on each deployment.
func newConfigUpload(scope constructs.Construct, bucket awss3.Bucket, config interface{}) {
	stack := awscdk.Stack_Of(scope)

	putObject := &customresources.AwsSdkCall{
		Service: jsii.String("S3"),
		Action:  jsii.String("putObject"),
		Parameters: map[string]interface{}{
			"Bucket":       bucket.BucketName(),
			"Key":          jsii.String(ConfigObjectKey),
			"Body":         stack.ToJsonString(config, nil),
			"ContentType":  jsii.String("application/json"),
			"CacheControl": jsii.String(NoCacheHeader),
		},
		PhysicalResourceId: customresources.PhysicalResourceId_Of(
			jsii.String("react-app-config-" + strconv.FormatInt(time.Now().UnixMilli(), 10))),
	}

	customresources.NewAwsCustomResource(scope, jsii.String("UploadConfig"), &customresources.AwsCustomResourceProps{
		OnUpdate: putObject,
		Policy: customresources.AwsCustomResourcePolicy_FromStatements(&[]awsiam.PolicyStatement{
			awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
				Actions:   jsii.Strings("s3:PutObject"),
				Resources: &[]*string{bucket.ArnForObjects(jsii.String(ConfigObjectKey))},
			}),
		}),
	})
}
