package main

import (
	"fmt"
	"os"
	"time"

	"github.com/vardario/cdk-react-app/infra"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)

	configPath := "deploy.yaml"
	if v, ok := app.Node().TryGetContext(jsii.String("config")).(string); ok && v != "" {
		configPath = v
	}

	cfg, err := infra.LoadDeployConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cdk-react-app: %v\n", err)
		os.Exit(1)
	}

	if _, err := infra.NewReactAppStack(app, "react-app", &infra.ReactAppStackProps{
		StackProps: awscdk.StackProps{
			Env:         env(),
			StackName:   jsii.String("ReactAppStack"),
			Description: jsii.String("static react app: s3 website bucket, optional cloudfront + route53"),
		},
		App: cfg.App,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "cdk-react-app: %v\n", err)
		os.Exit(1)
	}

	awscdk.Tags_Of(app).Add(jsii.String("project"), jsii.String("cdk-react-app"), nil)
	awscdk.Tags_Of(app).Add(jsii.String("synthTime"), jsii.String(time.Now().Format("2006-01-02 15:04:05.999")), nil)

	app.Synth(nil)
}

// env determines the AWS environment (account+region) in which our stack is to
// be deployed. For more information see: https://docs.aws.amazon.com/cdk/latest/guide/environments.html
func env() *awscdk.Environment {
	// Environment-agnostic by default; a single synthesized template can be
	// deployed anywhere. Certificates for CloudFront still have to live in
	// us-east-1 regardless of the stack region.
	return nil

	// Uncomment to pin the stack to the account and region implied by the
	// current CLI configuration:
	//---------------------------------------------------------------------------
	// return &awscdk.Environment{
	//  Account: jsii.String(os.Getenv("CDK_DEFAULT_ACCOUNT")),
	//  Region:  jsii.String(os.Getenv("CDK_DEFAULT_REGION")),
	// }
}
