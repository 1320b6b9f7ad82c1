package deploycdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/deploytheory"
)

// StaticWebsiteProps configures a StaticWebsite.
type StaticWebsiteProps struct {
	Intent deploytheory.WebsiteIntent
	// HostedZone short-circuits the zone lookup for the new-certificate path.
	HostedZone awsroute53.IHostedZone
	// DomainNames are the CDN aliases when the intent carries an existing
	// certificate reference; with a new certificate the alias is derived from
	// the domain config and this field is ignored.
	DomainNames []string
}

// StaticWebsite declares a static-website hosting stack: a private bucket
// served through a CDN with TLS, and optionally a custom domain with its
// alias record. Certificates for the CDN must live in us-east-1; that is the
// caller's stack placement concern.
type StaticWebsite struct {
	Construct constructs.Construct
	Intent    *deploytheory.EffectiveWebsiteIntent

	Bucket       awss3.Bucket
	Distribution awscloudfront.Distribution
	Certificate  awscertificatemanager.ICertificate
	DNSRecord    awsroute53.ARecord
}

// NewStaticWebsite resolves the intent and declares the website stack.
func NewStaticWebsite(scope constructs.Construct, id string, props *StaticWebsiteProps) (*StaticWebsite, error) {
	intent, err := deploytheory.ResolveWebsiteIntent(props.Intent)
	if err != nil {
		return nil, err
	}

	this := constructs.NewConstruct(scope, jsii.String(id))

	bucket := awss3.NewBucket(this, jsii.String("SiteBucket"), &awss3.BucketProps{
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		ObjectOwnership:   awss3.ObjectOwnership_BUCKET_OWNER_ENFORCED,
		EnforceSSL:        jsii.Bool(true),
	})

	site := &StaticWebsite{Construct: this, Intent: intent, Bucket: bucket}

	distProps := &awscloudfront.DistributionProps{
		DefaultRootObject: jsii.String(intent.IndexDocument),
		DefaultBehavior: &awscloudfront.BehaviorOptions{
			Origin:               awscloudfrontorigins.S3BucketOrigin_WithOriginAccessControl(bucket, nil),
			ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
		},
		ErrorResponses: errorResponses(intent),
	}

	var zone awsroute53.IHostedZone
	switch src := intent.CertificateSource.(type) {
	case deploytheory.NewCertificate:
		zone, err = resolveHostedZone(this, src, props.HostedZone)
		if err != nil {
			return nil, err
		}
		cert := awscertificatemanager.NewCertificate(this, jsii.String("Certificate"), &awscertificatemanager.CertificateProps{
			DomainName: jsii.String(src.FQDN()),
			Validation: awscertificatemanager.CertificateValidation_FromDns(zone),
		})
		site.Certificate = cert
		distProps.Certificate = cert
		distProps.DomainNames = jsii.Strings(src.FQDN())
	case deploytheory.ExistingCertificate:
		cert := awscertificatemanager.Certificate_FromCertificateArn(this, jsii.String("Certificate"), jsii.String(src.Arn))
		site.Certificate = cert
		distProps.Certificate = cert
		if len(props.DomainNames) > 0 {
			distProps.DomainNames = jsii.Strings(props.DomainNames...)
		}
	case nil:
		// No custom domain; the CDN serves on its default domain.
	}

	site.Distribution = awscloudfront.NewDistribution(this, jsii.String("Distribution"), distProps)

	if src, ok := intent.CertificateSource.(deploytheory.NewCertificate); ok {
		site.DNSRecord = awsroute53.NewARecord(this, jsii.String("AliasRecord"), &awsroute53.ARecordProps{
			Zone:       zone,
			RecordName: jsii.String(src.DomainName),
			Target:     awsroute53.RecordTarget_FromAlias(awsroute53targets.NewCloudFrontTarget(site.Distribution)),
		})
	}

	return site, nil
}

// errorResponses maps missing objects for each website type. Single-page apps
// rewrite unknown paths to the index so client-side routing works; plain
// static sites surface their error document.
func errorResponses(intent *deploytheory.EffectiveWebsiteIntent) *[]*awscloudfront.ErrorResponse {
	if intent.Type == deploytheory.WebsiteTypeSinglePage {
		return &[]*awscloudfront.ErrorResponse{
			{
				HttpStatus:         jsii.Number(403),
				ResponseHttpStatus: jsii.Number(200),
				ResponsePagePath:   jsii.String("/" + intent.IndexDocument),
			},
			{
				HttpStatus:         jsii.Number(404),
				ResponseHttpStatus: jsii.Number(200),
				ResponsePagePath:   jsii.String("/" + intent.IndexDocument),
			},
		}
	}
	return &[]*awscloudfront.ErrorResponse{
		{
			HttpStatus:       jsii.Number(404),
			ResponsePagePath: jsii.String("/" + intent.ErrorDocument),
		},
	}
}
