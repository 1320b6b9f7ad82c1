package deploycdk

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// resolveServiceBoundary declares the service-side access boundary. Target
// registration wires the front door's allowance for the exposed port; the
// boundary additionally admits port 80 from the front door when the exposed
// port differs, since health checks stay on plaintext port 80. Everything
// else inbound is denied; outbound is open.
func resolveServiceBoundary(scope constructs.Construct, network awsec2.IVpc, frontDoorBoundary awsec2.SecurityGroup, exposedPort int) awsec2.SecurityGroup {
	boundary := awsec2.NewSecurityGroup(scope, jsii.String("ServiceBoundary"), &awsec2.SecurityGroupProps{
		Vpc:              network,
		Description:      jsii.String("Service access boundary: front door traffic only"),
		AllowAllOutbound: jsii.Bool(true),
	})

	if exposedPort != 80 {
		boundary.AddIngressRule(
			awsec2.Peer_SecurityGroupId(frontDoorBoundary.SecurityGroupId(), nil),
			awsec2.Port_Tcp(jsii.Number(80)),
			jsii.String(fmt.Sprintf("Front door health checks (service port %d)", exposedPort)),
			nil,
		)
	}

	return boundary
}
