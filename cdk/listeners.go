package deploycdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/deploytheory"
)

type listenerSet struct {
	redirect    awselasticloadbalancingv2.ApplicationListener
	secure      awselasticloadbalancingv2.ApplicationListener
	certificate awscertificatemanager.ICertificate
	record      awsroute53.ARecord
}

// resolveHostedZone returns the zone for the new-certificate path, or nil for
// the existing-certificate path. An explicit zone wins over the intent's
// attributes; without either, the zone is looked up by name from the
// environment context.
func resolveHostedZone(scope constructs.Construct, source deploytheory.CertificateSource, explicit awsroute53.IHostedZone) (awsroute53.IHostedZone, error) {
	src, ok := source.(deploytheory.NewCertificate)
	if !ok {
		return nil, nil
	}
	if explicit != nil {
		return explicit, nil
	}
	if src.HostedZoneID != "" {
		return awsroute53.HostedZone_FromHostedZoneAttributes(scope, jsii.String("Zone"), &awsroute53.HostedZoneAttributes{
			HostedZoneId: jsii.String(src.HostedZoneID),
			ZoneName:     jsii.String(src.ZoneName),
		}), nil
	}
	return awsroute53.HostedZone_FromLookup(scope, jsii.String("Zone"), &awsroute53.HostedZoneProviderProps{
		DomainName: jsii.String(src.ZoneName),
	}), nil
}

// resolveListeners declares the front door's listeners. The plaintext
// redirect listener always comes first; the secure listener binds to either a
// freshly issued DNS-validated certificate (plus an alias record in the same
// zone) or an existing certificate reference (no DNS record).
//
// Certificate issuance triggers asynchronous domain validation outside this
// stack's control; resolution does not wait for it.
func resolveListeners(scope constructs.Construct, frontDoor awselasticloadbalancingv2.ApplicationLoadBalancer, source deploytheory.CertificateSource, zone awsroute53.IHostedZone) (*listenerSet, error) {
	set := &listenerSet{}

	set.redirect = frontDoor.AddListener(jsii.String("Redirect"), &awselasticloadbalancingv2.BaseApplicationListenerProps{
		Port:     jsii.Number(80),
		Protocol: awselasticloadbalancingv2.ApplicationProtocol_HTTP,
		Open:     jsii.Bool(true),
		DefaultAction: awselasticloadbalancingv2.ListenerAction_Redirect(&awselasticloadbalancingv2.RedirectOptions{
			Port:      jsii.String("443"),
			Protocol:  jsii.String("HTTPS"),
			Permanent: jsii.Bool(true),
		}),
	})

	var listenerCert awselasticloadbalancingv2.IListenerCertificate
	switch src := source.(type) {
	case deploytheory.NewCertificate:
		cert := awscertificatemanager.NewCertificate(scope, jsii.String("Certificate"), &awscertificatemanager.CertificateProps{
			DomainName: jsii.String(src.FQDN()),
			Validation: awscertificatemanager.CertificateValidation_FromDns(zone),
		})
		set.certificate = cert
		listenerCert = awselasticloadbalancingv2.ListenerCertificate_FromCertificateManager(cert)
	case deploytheory.ExistingCertificate:
		set.certificate = awscertificatemanager.Certificate_FromCertificateArn(scope, jsii.String("Certificate"), jsii.String(src.Arn))
		listenerCert = awselasticloadbalancingv2.ListenerCertificate_FromArn(jsii.String(src.Arn))
	default:
		return nil, &deploytheory.ConfigurationError{
			Code:    deploytheory.ErrorCodeCertificateSource,
			Message: "no certificate source resolved for the secure listener",
		}
	}

	set.secure = frontDoor.AddListener(jsii.String("Secure"), &awselasticloadbalancingv2.BaseApplicationListenerProps{
		Port:         jsii.Number(443),
		Protocol:     awselasticloadbalancingv2.ApplicationProtocol_HTTPS,
		Open:         jsii.Bool(true),
		Certificates: &[]awselasticloadbalancingv2.IListenerCertificate{listenerCert},
	})

	if src, ok := source.(deploytheory.NewCertificate); ok {
		set.record = awsroute53.NewARecord(scope, jsii.String("AliasRecord"), &awsroute53.ARecordProps{
			Zone:       zone,
			RecordName: jsii.String(src.DomainName),
			Target:     awsroute53.RecordTarget_FromAlias(awsroute53targets.NewLoadBalancerTarget(frontDoor, nil)),
		})
	}

	return set, nil
}
