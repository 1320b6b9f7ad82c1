package deploycdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/deploytheory"
	"github.com/theory-cloud/deploytheory/pkg/naming"
)

// grantActionPrefixes maps each access grant to the downstream service's IAM
// action prefix. Grants are deliberately broad (all actions, all resources);
// callers needing least-privilege narrow them externally.
var grantActionPrefixes = map[deploytheory.Grant]string{
	deploytheory.GrantStorage: "s3",
	deploytheory.GrantTables:  "dynamodb",
	deploytheory.GrantQueues:  "sqs",
	deploytheory.GrantTopics:  "sns",
}

// resolveDeployableUnit declares the Fargate task definition. The family name
// comes from the application name only, never the image, so later image swaps
// replace revisions within the same logical family.
func resolveDeployableUnit(scope constructs.Construct, intent *deploytheory.EffectiveIntent, logGroup awslogs.ILogGroup) awsecs.FargateTaskDefinition {
	executionRole := awsiam.NewRole(scope, jsii.String("ExecutionRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("ecs-tasks.amazonaws.com"), nil),
	})
	executionRole.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Sid: jsii.String("PullImages"),
		Actions: jsii.Strings(
			"ecr:GetAuthorizationToken",
			"ecr:BatchCheckLayerAvailability",
			"ecr:GetDownloadUrlForLayer",
			"ecr:BatchGetImage",
		),
		Resources: jsii.Strings("*"),
	}))
	executionRole.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Sid: jsii.String("WriteLogs"),
		Actions: jsii.Strings(
			"logs:CreateLogStream",
			"logs:PutLogEvents",
		),
		Resources: &[]*string{logGroup.LogGroupArn()},
	}))

	taskRole := awsiam.NewRole(scope, jsii.String("TaskRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("ecs-tasks.amazonaws.com"), nil),
	})
	for _, grant := range intent.AccessGrants.Enabled() {
		taskRole.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Sid:       jsii.String(naming.ConstructID("grant", string(grant))),
			Actions:   jsii.Strings(grantActionPrefixes[grant] + ":*"),
			Resources: jsii.Strings("*"),
		}))
	}

	taskDef := awsecs.NewFargateTaskDefinition(scope, jsii.String("DeployableUnit"), &awsecs.FargateTaskDefinitionProps{
		Family:         jsii.String(naming.FamilyName(intent.ApplicationName)),
		Cpu:            jsii.Number(float64(intent.Sizing.CPUUnits)),
		MemoryLimitMiB: jsii.Number(float64(intent.Sizing.MemoryMiB)),
		ExecutionRole:  executionRole,
		TaskRole:       taskRole,
	})

	container := taskDef.AddContainer(jsii.String("app"), &awsecs.ContainerDefinitionOptions{
		Image: awsecs.ContainerImage_FromRegistry(jsii.String(intent.ContainerImage), nil),
		Logging: awsecs.LogDrivers_AwsLogs(&awsecs.AwsLogDriverProps{
			StreamPrefix: jsii.String(intent.ApplicationName),
			LogGroup:     logGroup,
		}),
	})
	container.AddPortMappings(&awsecs.PortMapping{
		ContainerPort: jsii.Number(float64(intent.ExposedPort)),
		Protocol:      awsecs.Protocol_TCP,
	})

	return taskDef
}
