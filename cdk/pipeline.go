package deploycdk

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodebuild"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipeline"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipelineactions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/deploytheory"
	"github.com/theory-cloud/deploytheory/pkg/naming"
)

// newArtifactBucket declares the pipeline's artifact store: encrypted,
// SSL-only, never public, cleaned up with the pipeline.
func newArtifactBucket(scope constructs.Construct) awss3.Bucket {
	return awss3.NewBucket(scope, jsii.String("Artifacts"), &awss3.BucketProps{
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		EnforceSSL:        jsii.Bool(true),
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		Versioned:         jsii.Bool(true),
		RemovalPolicy:     awscdk.RemovalPolicy_DESTROY,
		AutoDeleteObjects: jsii.Bool(true),
	})
}

func newSourceAction(repo deploytheory.SourceRepo, output awscodepipeline.Artifact) awscodepipelineactions.GitHubSourceAction {
	return awscodepipelineactions.NewGitHubSourceAction(&awscodepipelineactions.GitHubSourceActionProps{
		ActionName: jsii.String("Checkout"),
		Owner:      jsii.String(repo.Owner),
		Repo:       jsii.String(repo.Repo),
		Branch:     jsii.String(repo.Branch),
		OauthToken: awscdk.SecretValue_SecretsManager(jsii.String(repo.TokenSecretName), nil),
		Output:     output,
	})
}

// BackendPipelineProps configures a BackendPipeline.
type BackendPipelineProps struct {
	ApplicationName string
	Source          deploytheory.SourceRepo
	// Service is the running backend service the deploy stage updates.
	Service awsecs.IBaseService
	// ImageRepositoryURI is where the build stage pushes the container
	// image referenced by the generated image definitions file.
	ImageRepositoryURI string
}

// BackendPipeline wires checkout, container build and service deployment for
// a containerized backend. The deploy stage swaps the image within the
// deployable unit's stable family; the unit's identity never changes.
type BackendPipeline struct {
	Construct      constructs.Construct
	Pipeline       awscodepipeline.Pipeline
	ArtifactBucket awss3.Bucket
	BuildProject   awscodebuild.PipelineProject
}

// NewBackendPipeline declares the backend delivery pipeline.
func NewBackendPipeline(scope constructs.Construct, id string, props *BackendPipelineProps) (*BackendPipeline, error) {
	if err := props.Source.Validate(); err != nil {
		return nil, err
	}
	if props.ApplicationName == "" {
		return nil, &deploytheory.ConfigurationError{
			Code:    deploytheory.ErrorCodeApplicationName,
			Message: "backend pipeline requires an application name",
		}
	}
	if props.Service == nil {
		return nil, &deploytheory.ConfigurationError{
			Code:    deploytheory.ErrorCodeManifest,
			Message: "backend pipeline requires the service to deploy to",
		}
	}

	this := constructs.NewConstruct(scope, jsii.String(id))

	artifacts := newArtifactBucket(this)
	sourceOutput := awscodepipeline.NewArtifact(jsii.String("SourceOutput"), nil)
	buildOutput := awscodepipeline.NewArtifact(jsii.String("BuildOutput"), nil)

	build := awscodebuild.NewPipelineProject(this, jsii.String("Build"), &awscodebuild.PipelineProjectProps{
		ProjectName: jsii.String(naming.ResourceName(props.ApplicationName, "build")),
		Environment: &awscodebuild.BuildEnvironment{
			BuildImage: awscodebuild.LinuxBuildImage_STANDARD_7_0(),
			// Docker-in-docker for the image build.
			Privileged: jsii.Bool(true),
		},
		BuildSpec: containerBuildSpec(props.ImageRepositoryURI),
	})

	pipeline := awscodepipeline.NewPipeline(this, jsii.String("Pipeline"), &awscodepipeline.PipelineProps{
		PipelineName:   jsii.String(naming.ResourceName(props.ApplicationName, "pipeline")),
		ArtifactBucket: artifacts,
	})
	pipeline.AddStage(&awscodepipeline.StageOptions{
		StageName: jsii.String("Source"),
		Actions:   &[]awscodepipeline.IAction{newSourceAction(props.Source, sourceOutput)},
	})
	pipeline.AddStage(&awscodepipeline.StageOptions{
		StageName: jsii.String("Build"),
		Actions: &[]awscodepipeline.IAction{
			awscodepipelineactions.NewCodeBuildAction(&awscodepipelineactions.CodeBuildActionProps{
				ActionName: jsii.String("ContainerBuild"),
				Project:    build,
				Input:      sourceOutput,
				Outputs:    &[]awscodepipeline.Artifact{buildOutput},
			}),
		},
	})
	pipeline.AddStage(&awscodepipeline.StageOptions{
		StageName: jsii.String("Deploy"),
		Actions: &[]awscodepipeline.IAction{
			awscodepipelineactions.NewEcsDeployAction(&awscodepipelineactions.EcsDeployActionProps{
				ActionName: jsii.String("RollOut"),
				Service:    props.Service,
				Input:      buildOutput,
			}),
		},
	})

	return &BackendPipeline{
		Construct:      this,
		Pipeline:       pipeline,
		ArtifactBucket: artifacts,
		BuildProject:   build,
	}, nil
}

// containerBuildSpec builds, tags and pushes the image, then emits the image
// definitions file the deploy stage consumes.
func containerBuildSpec(repositoryURI string) awscodebuild.BuildSpec {
	return awscodebuild.BuildSpec_FromObject(&map[string]interface{}{
		"version": "0.2",
		"phases": map[string]interface{}{
			"pre_build": map[string]interface{}{
				"commands": []string{
					"aws ecr get-login-password --region $AWS_DEFAULT_REGION | docker login --username AWS --password-stdin " + repositoryURI,
				},
			},
			"build": map[string]interface{}{
				"commands": []string{
					"docker build -t " + repositoryURI + ":$CODEBUILD_RESOLVED_SOURCE_VERSION .",
					"docker push " + repositoryURI + ":$CODEBUILD_RESOLVED_SOURCE_VERSION",
				},
			},
			"post_build": map[string]interface{}{
				"commands": []string{
					`printf '[{"name":"app","imageUri":"%s"}]' "` + repositoryURI + `:$CODEBUILD_RESOLVED_SOURCE_VERSION" > imagedefinitions.json`,
				},
			},
		},
		"artifacts": map[string]interface{}{
			"files": []string{"imagedefinitions.json"},
		},
	})
}

// WebsitePipelineProps configures a WebsitePipeline.
type WebsitePipelineProps struct {
	SiteName string
	Source   deploytheory.SourceRepo
	// Bucket is the website's content bucket the deploy stage publishes to.
	Bucket awss3.IBucket
	// WebsiteType controls whether a build stage is included. Prebuilt
	// static sites go straight from checkout to deploy.
	WebsiteType deploytheory.WebsiteType
	// BuildCommands run in the build stage for single-page sites. Defaults
	// to npm ci + npm run build with output in dist/.
	BuildCommands []string
	// BuildOutputDir is the directory the build stage emits. Defaults to dist.
	BuildOutputDir string
}

// WebsitePipeline wires checkout, an optional build, and bucket deployment
// for a static website.
type WebsitePipeline struct {
	Construct      constructs.Construct
	Pipeline       awscodepipeline.Pipeline
	ArtifactBucket awss3.Bucket
	// BuildProject is nil for prebuilt static sites.
	BuildProject awscodebuild.PipelineProject
}

// NewWebsitePipeline declares the website delivery pipeline. The build stage
// is included only for single-page sites; this conditional wiring is the
// pipeline-side counterpart of the website type.
func NewWebsitePipeline(scope constructs.Construct, id string, props *WebsitePipelineProps) (*WebsitePipeline, error) {
	if err := props.Source.Validate(); err != nil {
		return nil, err
	}
	if props.SiteName == "" {
		return nil, &deploytheory.ConfigurationError{
			Code:    deploytheory.ErrorCodeApplicationName,
			Message: "website pipeline requires a site name",
		}
	}
	if props.Bucket == nil {
		return nil, &deploytheory.ConfigurationError{
			Code:    deploytheory.ErrorCodeManifest,
			Message: "website pipeline requires the content bucket to deploy to",
		}
	}
	websiteType := props.WebsiteType
	if websiteType == "" {
		websiteType = deploytheory.WebsiteTypeStatic
	}

	this := constructs.NewConstruct(scope, jsii.String(id))

	artifacts := newArtifactBucket(this)
	sourceOutput := awscodepipeline.NewArtifact(jsii.String("SourceOutput"), nil)

	pipeline := awscodepipeline.NewPipeline(this, jsii.String("Pipeline"), &awscodepipeline.PipelineProps{
		PipelineName:   jsii.String(naming.ResourceName(props.SiteName, "pipeline")),
		ArtifactBucket: artifacts,
	})
	pipeline.AddStage(&awscodepipeline.StageOptions{
		StageName: jsii.String("Source"),
		Actions:   &[]awscodepipeline.IAction{newSourceAction(props.Source, sourceOutput)},
	})

	deployInput := sourceOutput
	result := &WebsitePipeline{Construct: this, Pipeline: pipeline, ArtifactBucket: artifacts}

	if websiteType == deploytheory.WebsiteTypeSinglePage {
		buildOutput := awscodepipeline.NewArtifact(jsii.String("BuildOutput"), nil)
		build := awscodebuild.NewPipelineProject(this, jsii.String("Build"), &awscodebuild.PipelineProjectProps{
			ProjectName: jsii.String(naming.ResourceName(props.SiteName, "build")),
			Environment: &awscodebuild.BuildEnvironment{
				BuildImage: awscodebuild.LinuxBuildImage_STANDARD_7_0(),
			},
			BuildSpec: websiteBuildSpec(props.BuildCommands, props.BuildOutputDir),
		})
		pipeline.AddStage(&awscodepipeline.StageOptions{
			StageName: jsii.String("Build"),
			Actions: &[]awscodepipeline.IAction{
				awscodepipelineactions.NewCodeBuildAction(&awscodepipelineactions.CodeBuildActionProps{
					ActionName: jsii.String("SiteBuild"),
					Project:    build,
					Input:      sourceOutput,
					Outputs:    &[]awscodepipeline.Artifact{buildOutput},
				}),
			},
		})
		deployInput = buildOutput
		result.BuildProject = build
	}

	pipeline.AddStage(&awscodepipeline.StageOptions{
		StageName: jsii.String("Deploy"),
		Actions: &[]awscodepipeline.IAction{
			awscodepipelineactions.NewS3DeployAction(&awscodepipelineactions.S3DeployActionProps{
				ActionName: jsii.String("Publish"),
				Bucket:     props.Bucket,
				Input:      deployInput,
			}),
		},
	})

	return result, nil
}

func websiteBuildSpec(commands []string, outputDir string) awscodebuild.BuildSpec {
	if len(commands) == 0 {
		commands = []string{"npm ci", "npm run build"}
	}
	if outputDir == "" {
		outputDir = "dist"
	}
	outputDir = strings.TrimSuffix(outputDir, "/")
	return awscodebuild.BuildSpec_FromObject(&map[string]interface{}{
		"version": "0.2",
		"phases": map[string]interface{}{
			"build": map[string]interface{}{
				"commands": commands,
			},
		},
		"artifacts": map[string]interface{}{
			"base-directory": outputDir,
			"files":          []string{"**/*"},
		},
	})
}
