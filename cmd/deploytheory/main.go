// Command deploytheory synthesizes deployment stacks from a YAML manifest
// and inspects the outputs of materialized stacks.
//
// Usage:
//
//	deploytheory synth -manifest deploy.yaml
//	deploytheory outputs -stack api-backend
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/jsii-runtime-go"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/theory-cloud/deploytheory"
	deploycdk "github.com/theory-cloud/deploytheory/cdk"
	"github.com/theory-cloud/deploytheory/pkg/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logger.Logger().Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: deploytheory <synth|outputs> [flags]")
	}

	log, err := logger.New(envOr("DEPLOYTHEORY_LOG_LEVEL", "info"))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	logger.SetLogger(log.With(zap.String("run_id", ulid.Make().String())))

	switch args[0] {
	case "synth":
		return runSynth(args[1:])
	case "outputs":
		return runOutputs(args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runSynth(args []string) error {
	flags := flag.NewFlagSet("synth", flag.ContinueOnError)
	manifestPath := flags.String("manifest", "deploy.yaml", "path to the deployment manifest")
	if err := flags.Parse(args); err != nil {
		return err
	}

	manifest, err := deploytheory.LoadManifest(*manifestPath)
	if err != nil {
		return err
	}
	log := logger.Logger()
	log.Info("synthesizing",
		zap.String("manifest", *manifestPath),
		zap.String("environment", manifest.Environment),
		zap.Int("backends", len(manifest.Backends)),
		zap.Int("websites", len(manifest.Websites)),
	)

	app := awscdk.NewApp(nil)
	if err := declareStacks(app, manifest); err != nil {
		return err
	}
	app.Synth(nil)

	log.Info("synthesis complete")
	return nil
}

func stackEnv(manifest *deploytheory.Manifest) *awscdk.Environment {
	if manifest.Account == "" && manifest.Region == "" {
		return nil
	}
	env := &awscdk.Environment{}
	if manifest.Account != "" {
		env.Account = jsii.String(manifest.Account)
	}
	if manifest.Region != "" {
		env.Region = jsii.String(manifest.Region)
	}
	return env
}

func declareStacks(app awscdk.App, manifest *deploytheory.Manifest) error {
	env := stackEnv(manifest)

	for _, entry := range manifest.Backends {
		stack := awscdk.NewStack(app, jsii.String(entry.ApplicationName+"-backend"), &awscdk.StackProps{Env: env})
		backend, err := deploycdk.NewBackendService(stack, "Backend", &deploycdk.BackendServiceProps{
			Intent: entry.DeploymentIntent,
		})
		if err != nil {
			return fmt.Errorf("backend %s: %w", entry.ApplicationName, err)
		}
		if entry.Pipeline != nil {
			if err := declareBackendPipeline(app, env, entry, backend); err != nil {
				return err
			}
		}
	}

	for _, entry := range manifest.Websites {
		stack := awscdk.NewStack(app, jsii.String(entry.SiteName+"-website"), &awscdk.StackProps{Env: env})
		site, err := deploycdk.NewStaticWebsite(stack, "Site", &deploycdk.StaticWebsiteProps{
			Intent: entry.WebsiteIntent,
		})
		if err != nil {
			return fmt.Errorf("website %s: %w", entry.SiteName, err)
		}
		if entry.Pipeline != nil {
			_, err := deploycdk.NewWebsitePipeline(stack, "Delivery", &deploycdk.WebsitePipelineProps{
				SiteName:      entry.SiteName,
				Source:        *entry.Pipeline,
				Bucket:        site.Bucket,
				WebsiteType:   site.Intent.Type,
				BuildCommands: entry.BuildCommands,
			})
			if err != nil {
				return fmt.Errorf("website pipeline %s: %w", entry.SiteName, err)
			}
		}
	}
	return nil
}

func declareBackendPipeline(app awscdk.App, env *awscdk.Environment, entry deploytheory.BackendEntry, backend *deploycdk.BackendService) error {
	stack := awscdk.NewStack(app, jsii.String(entry.ApplicationName+"-delivery"), &awscdk.StackProps{Env: env})
	images := deploycdk.NewImageRepository(stack, "Images", entry.ApplicationName)
	_, err := deploycdk.NewBackendPipeline(stack, "Delivery", &deploycdk.BackendPipelineProps{
		ApplicationName:    entry.ApplicationName,
		Source:             *entry.Pipeline,
		Service:            backend.Service,
		ImageRepositoryURI: *images.RepositoryUri(),
	})
	if err != nil {
		return fmt.Errorf("backend pipeline %s: %w", entry.ApplicationName, err)
	}
	return nil
}

func runOutputs(args []string) error {
	flags := flag.NewFlagSet("outputs", flag.ContinueOnError)
	stackName := flags.String("stack", "", "CloudFormation stack name")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *stackName == "" {
		return fmt.Errorf("outputs: -stack is required")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	client := cloudformation.NewFromConfig(cfg)

	resp, err := client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(*stackName),
	})
	if err != nil {
		return fmt.Errorf("describe stack %s: %w", *stackName, err)
	}
	if len(resp.Stacks) == 0 {
		return fmt.Errorf("stack %s not found", *stackName)
	}

	log := logger.Logger()
	for _, output := range resp.Stacks[0].Outputs {
		log.Info("stack output",
			zap.String("stack", *stackName),
			zap.String("key", aws.ToString(output.OutputKey)),
			zap.String("value", aws.ToString(output.OutputValue)),
		)
		fmt.Printf("%s=%s\n", aws.ToString(output.OutputKey), aws.ToString(output.OutputValue))
	}
	return nil
}
