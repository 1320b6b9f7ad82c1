package deploycdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecr"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/deploytheory/pkg/naming"
)

// NewImageRepository declares the container image repository a backend
// pipeline pushes to. Images are swept with the repository so teardown never
// blocks on leftover layers.
func NewImageRepository(scope constructs.Construct, id string, appName string) awsecr.Repository {
	return awsecr.NewRepository(scope, jsii.String(id), &awsecr.RepositoryProps{
		RepositoryName: jsii.String(naming.ResourceName(appName, "images")),
		RemovalPolicy:  awscdk.RemovalPolicy_DESTROY,
		EmptyOnDelete:  jsii.Bool(true),
	})
}
