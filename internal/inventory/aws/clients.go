// Package aws collects an AWS account's billable inventory and maps it to
// the canonical resource model consumed by the rule engine.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/costwise/costwise/internal/config"
)

// Narrow client interfaces. Each lists only the SDK operations this package
// uses; the real *ec2.Client, *rds.Client, etc. satisfy them automatically,
// and tests replace any field of clients with a stub.

type ec2Client interface {
	DescribeInstances(
		ctx context.Context,
		params *ec2svc.DescribeInstancesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeInstancesOutput, error)

	DescribeVolumes(
		ctx context.Context,
		params *ec2svc.DescribeVolumesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeVolumesOutput, error)

	DescribeSnapshots(
		ctx context.Context,
		params *ec2svc.DescribeSnapshotsInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeSnapshotsOutput, error)

	DescribeAddresses(
		ctx context.Context,
		params *ec2svc.DescribeAddressesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeAddressesOutput, error)
}

type rdsClient interface {
	DescribeDBInstances(
		ctx context.Context,
		params *rds.DescribeDBInstancesInput,
		optFns ...func(*rds.Options),
	) (*rds.DescribeDBInstancesOutput, error)
}

type elbClient interface {
	DescribeLoadBalancers(
		ctx context.Context,
		params *elbv2.DescribeLoadBalancersInput,
		optFns ...func(*elbv2.Options),
	) (*elbv2.DescribeLoadBalancersOutput, error)
}

// cwClient is regional; metrics must be queried in the resource's region.
type cwClient interface {
	GetMetricStatistics(
		ctx context.Context,
		params *cloudwatch.GetMetricStatisticsInput,
		optFns ...func(*cloudwatch.Options),
	) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// ceClient covers Cost Explorer, a global service; the factory always points
// it at us-east-1.
type ceClient interface {
	GetCostAndUsage(
		ctx context.Context,
		params *ce.GetCostAndUsageInput,
		optFns ...func(*ce.Options),
	) (*ce.GetCostAndUsageOutput, error)
}

type stsClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// clients holds all service clients needed for one collection run. All
// fields are interfaces; swap any with a stub in tests.
type clients struct {
	EC2 ec2Client
	RDS rdsClient
	ELB elbClient
	CW  cwClient
	CE  ceClient
	STS stsClient
}

func newDefaultClients(cfg aws.Config) *clients {
	ceCfg := cfg
	ceCfg.Region = "us-east-1"
	return &clients{
		EC2: ec2svc.NewFromConfig(cfg),
		RDS: rds.NewFromConfig(cfg),
		ELB: elbv2.NewFromConfig(cfg),
		CW:  cloudwatch.NewFromConfig(cfg),
		CE:  ce.NewFromConfig(ceCfg),
		STS: sts.NewFromConfig(cfg),
	}
}

// loadConfig resolves the AWS SDK configuration for the configured region
// and optional shared-config profile.
func loadConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return awsCfg, nil
}
