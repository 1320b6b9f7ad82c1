// Package deploycdk provides reusable CDK constructs for theory-cloud
// deployments: a containerized backend behind a TLS front door, a static
// website behind a CDN, and the pipelines that ship both.
//
// Constructs only declare desired state. Materialization, ordering, retries
// and drift are CloudFormation's concern; a failed resolution here declares
// nothing.
package deploycdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapplicationautoscaling"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/deploytheory"
	"github.com/theory-cloud/deploytheory/pkg/naming"
)

// BackendServiceProps configures a BackendService.
type BackendServiceProps struct {
	// Intent describes the deployment. It is resolved against Defaults and
	// validated before any resource is declared.
	Intent deploytheory.DeploymentIntent
	// Defaults overrides the standard defaults merge. Nil means
	// deploytheory.StandardDefaults().
	Defaults *deploytheory.Defaults
	// HostedZone short-circuits the zone lookup for the new-certificate
	// path. Required in environment-agnostic stacks (tests), optional when
	// the stack has a concrete env.
	HostedZone awsroute53.IHostedZone
	// Vpc reuses an existing network instead of declaring a fresh one.
	Vpc awsec2.IVpc
	// DesiredCount overrides the initial replica count. Defaults to the
	// capacity floor.
	DesiredCount *float64
}

// BackendService declares a containerized backend: isolated network, ECS
// cluster, internet-facing load balancer with plaintext-to-TLS redirect,
// certificate-or-reference secure listener, Fargate task definition with a
// stable family identity, service, target registration and capacity policy.
//
// All handles are owned by the caller; the construct keeps no mutable state
// after construction.
type BackendService struct {
	Construct constructs.Construct
	Intent    *deploytheory.EffectiveIntent

	Network            awsec2.IVpc
	Cluster            awsecs.Cluster
	FrontDoor          awselasticloadbalancingv2.ApplicationLoadBalancer
	FrontDoorBoundary  awsec2.SecurityGroup
	RedirectListener   awselasticloadbalancingv2.ApplicationListener
	SecureListener     awselasticloadbalancingv2.ApplicationListener
	Certificate        awscertificatemanager.ICertificate
	DNSRecord          awsroute53.ARecord
	DeployableUnit     awsecs.FargateTaskDefinition
	Service            awsecs.FargateService
	ServiceBoundary    awsec2.SecurityGroup
	TargetRegistration awselasticloadbalancingv2.ApplicationTargetGroup
	CapacityPolicy     awsecs.ScalableTaskCount
}

// NewBackendService resolves the intent and declares the backend stack.
// Configuration errors surface before the first resource exists.
func NewBackendService(scope constructs.Construct, id string, props *BackendServiceProps) (*BackendService, error) {
	defaults := deploytheory.StandardDefaults()
	if props.Defaults != nil {
		defaults = *props.Defaults
	}
	intent, err := deploytheory.ResolveIntent(props.Intent, defaults)
	if err != nil {
		return nil, err
	}

	this := constructs.NewConstruct(scope, jsii.String(id))
	app := intent.ApplicationName

	network := props.Vpc
	if network == nil {
		network = awsec2.NewVpc(this, jsii.String("Network"), &awsec2.VpcProps{
			MaxAzs:      jsii.Number(2),
			NatGateways: jsii.Number(1),
		})
	}

	cluster := awsecs.NewCluster(this, jsii.String("Cluster"), &awsecs.ClusterProps{
		Vpc:         network,
		ClusterName: jsii.String(naming.ResourceName(app, "cluster")),
	})

	frontDoorBoundary := awsec2.NewSecurityGroup(this, jsii.String("FrontDoorBoundary"), &awsec2.SecurityGroupProps{
		Vpc:              network,
		Description:      jsii.String("Front door access boundary for " + app),
		AllowAllOutbound: jsii.Bool(true),
	})

	frontDoor := awselasticloadbalancingv2.NewApplicationLoadBalancer(this, jsii.String("FrontDoor"), &awselasticloadbalancingv2.ApplicationLoadBalancerProps{
		Vpc:            network,
		InternetFacing: jsii.Bool(true),
		SecurityGroup:  frontDoorBoundary,
		VpcSubnets:     &awsec2.SubnetSelection{SubnetType: awsec2.SubnetType_PUBLIC},
	})

	zone, err := resolveHostedZone(this, intent.CertificateSource, props.HostedZone)
	if err != nil {
		return nil, err
	}
	listeners, err := resolveListeners(this, frontDoor, intent.CertificateSource, zone)
	if err != nil {
		return nil, err
	}

	logGroup := awslogs.NewLogGroup(this, jsii.String("Logs"), &awslogs.LogGroupProps{
		LogGroupName:  jsii.String("/ecs/" + naming.ResourceName(app, "")),
		Retention:     awslogs.RetentionDays_ONE_MONTH,
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})

	taskDef := resolveDeployableUnit(this, intent, logGroup)

	serviceBoundary := resolveServiceBoundary(this, network, frontDoorBoundary, intent.ExposedPort)

	desired := float64(intent.Capacity.Min)
	if props.DesiredCount != nil {
		desired = *props.DesiredCount
	}
	service := awsecs.NewFargateService(this, jsii.String("Service"), &awsecs.FargateServiceProps{
		Cluster:        cluster,
		TaskDefinition: taskDef,
		DesiredCount:   jsii.Number(desired),
		SecurityGroups: &[]awsec2.ISecurityGroup{serviceBoundary},
		VpcSubnets:     &awsec2.SubnetSelection{SubnetType: awsec2.SubnetType_PRIVATE_WITH_EGRESS},
	})

	// Health checks are plaintext HTTP against the service port even though
	// viewer traffic is TLS-terminated at the front door. Intentional.
	targets := listeners.secure.AddTargets(jsii.String("ServiceTargets"), &awselasticloadbalancingv2.AddApplicationTargetsProps{
		Port:     jsii.Number(float64(intent.ExposedPort)),
		Protocol: awselasticloadbalancingv2.ApplicationProtocol_HTTP,
		Targets:  &[]awselasticloadbalancingv2.IApplicationLoadBalancerTarget{service},
		HealthCheck: &awselasticloadbalancingv2.HealthCheck{
			Path:             jsii.String(intent.HealthCheckPath),
			Protocol:         awselasticloadbalancingv2.Protocol_HTTP,
			HealthyHttpCodes: jsii.String("200-399"),
		},
	})

	capacity := service.AutoScaleTaskCount(&awsapplicationautoscaling.EnableScalingProps{
		MinCapacity: jsii.Number(float64(intent.Capacity.Min)),
		MaxCapacity: jsii.Number(float64(intent.Capacity.Max)),
	})
	capacity.ScaleOnCpuUtilization(jsii.String("CpuScaling"), &awsecs.CpuUtilizationScalingProps{
		TargetUtilizationPercent: jsii.Number(60),
	})

	return &BackendService{
		Construct:          this,
		Intent:             intent,
		Network:            network,
		Cluster:            cluster,
		FrontDoor:          frontDoor,
		FrontDoorBoundary:  frontDoorBoundary,
		RedirectListener:   listeners.redirect,
		SecureListener:     listeners.secure,
		Certificate:        listeners.certificate,
		DNSRecord:          listeners.record,
		DeployableUnit:     taskDef,
		Service:            service,
		ServiceBoundary:    serviceBoundary,
		TargetRegistration: targets,
		CapacityPolicy:     capacity,
	}, nil
}
