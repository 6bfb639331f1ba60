package aws

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/costwise/costwise/internal/config"
	"github.com/costwise/costwise/internal/models"
)

// Cost Explorer service names mapped during cost attribution.
const (
	serviceEC2 = "Amazon Elastic Compute Cloud - Compute"
	serviceRDS = "Amazon Relational Database Service"
	serviceELB = "Amazon Elastic Load Balancing"
)

// Collector gathers one region's billable inventory.
type Collector struct {
	clients *clients
	region  string
	logger  *zap.Logger
}

// NewCollector resolves AWS credentials and builds the production clients.
func NewCollector(ctx context.Context, cfg config.AWSConfig, logger *zap.Logger) (*Collector, error) {
	awsCfg, err := loadConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		clients: newDefaultClients(awsCfg),
		region:  cfg.Region,
		logger:  logger,
	}, nil
}

// Vendor identifies the provider this collector serves.
func (c *Collector) Vendor() string { return "aws" }

// AccountID returns the AWS account the configured credentials belong to.
func (c *Collector) AccountID(ctx context.Context) (string, error) {
	out, err := c.clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("GetCallerIdentity: %w", err)
	}
	return aws.ToString(out.Account), nil
}

// Collect gathers servers, volumes, snapshots, reserved IPs, database
// instances and load balancers, enriches servers with CPU metrics, and
// attributes month-to-date costs. CloudWatch and Cost Explorer failures are
// non-fatal: affected resources keep zero metrics/costs, which the rule
// engine treats as "no data".
func (c *Collector) Collect(ctx context.Context) ([]models.Resource, error) {
	var resources []models.Resource

	servers, err := c.collectInstances(ctx)
	if err != nil {
		return nil, err
	}
	resources = append(resources, servers...)

	volumes, err := c.collectVolumes(ctx)
	if err != nil {
		return nil, err
	}
	resources = append(resources, volumes...)

	snapshots, err := c.collectSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	resources = append(resources, snapshots...)

	ips, err := c.collectAddresses(ctx)
	if err != nil {
		return nil, err
	}
	resources = append(resources, ips...)

	databases, err := c.collectDatabases(ctx)
	if err != nil {
		return nil, err
	}
	resources = append(resources, databases...)

	balancers, err := c.collectLoadBalancers(ctx)
	if err != nil {
		return nil, err
	}
	resources = append(resources, balancers...)

	c.attributeCosts(ctx, resources)
	return resources, nil
}

func (c *Collector) collectInstances(ctx context.Context) ([]models.Resource, error) {
	input := &ec2svc.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"running", "stopped"},
			},
		},
	}
	paginator := ec2svc.NewDescribeInstancesPaginator(c.clients.EC2, input)

	var out []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeInstances page: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				out = append(out, c.toServer(inst))
			}
		}
	}

	// Enrich running servers with the 14-day CloudWatch CPU average.
	// Stopped instances emit no CPU metric; skip them.
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -14)
	for i := range out {
		if out[i].Status != models.StatusActive {
			continue
		}
		if cpu, ok := c.fetchAvgCPU(ctx, out[i].ExternalID, start, end); ok {
			out[i].Tags[models.TagCPUUtilization] = strconv.FormatFloat(cpu, 'f', 1, 64)
		}
	}
	return out, nil
}

func (c *Collector) toServer(inst ec2types.Instance) models.Resource {
	spec := models.ResourceSpec{}
	if cpu := inst.CpuOptions; cpu != nil {
		spec.VCPU = int(aws.ToInt32(cpu.CoreCount) * aws.ToInt32(cpu.ThreadsPerCore))
	}

	var createdAt time.Time
	if inst.LaunchTime != nil {
		createdAt = *inst.LaunchTime
	}

	tags := tagMap(inst.Tags)
	res := models.Resource{
		ID:         uuid.New(),
		Vendor:     "aws",
		ExternalID: aws.ToString(inst.InstanceId),
		Name:       tags["Name"],
		Kind:       models.KindServer,
		Region:     c.region,
		Status:     instanceStatus(inst.State),
		Tags:       tags,
		Spec:       spec,
		RawConfig: map[string]any{
			"instance_type": string(inst.InstanceType),
		},
		Currency:  "USD",
		CreatedAt: createdAt,
	}
	return res
}

func (c *Collector) collectVolumes(ctx context.Context) ([]models.Resource, error) {
	paginator := ec2svc.NewDescribeVolumesPaginator(c.clients.EC2, &ec2svc.DescribeVolumesInput{})

	var out []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeVolumes page: %w", err)
		}
		for _, vol := range page.Volumes {
			status := models.StatusActive
			if len(vol.Attachments) == 0 {
				status = models.StatusUnattached
			}
			var createdAt time.Time
			if vol.CreateTime != nil {
				createdAt = *vol.CreateTime
			}
			out = append(out, models.Resource{
				ID:         uuid.New(),
				Vendor:     "aws",
				ExternalID: aws.ToString(vol.VolumeId),
				Kind:       models.KindVolume,
				Region:     c.region,
				Status:     status,
				Tags:       tagMap(vol.Tags),
				Spec: models.ResourceSpec{
					StorageGB:   float64(aws.ToInt32(vol.Size)),
					StorageType: volumeStorageType(vol.VolumeType),
				},
				RawConfig: map[string]any{"volume_type": string(vol.VolumeType)},
				Currency:  "USD",
				CreatedAt: createdAt,
			})
		}
	}
	return out, nil
}

func (c *Collector) collectSnapshots(ctx context.Context) ([]models.Resource, error) {
	paginator := ec2svc.NewDescribeSnapshotsPaginator(c.clients.EC2, &ec2svc.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})

	var out []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeSnapshots page: %w", err)
		}
		for _, snap := range page.Snapshots {
			var createdAt time.Time
			if snap.StartTime != nil {
				createdAt = *snap.StartTime
			}
			out = append(out, models.Resource{
				ID:         uuid.New(),
				Vendor:     "aws",
				ExternalID: aws.ToString(snap.SnapshotId),
				Kind:       models.KindSnapshot,
				Region:     c.region,
				Status:     models.StatusActive,
				Tags:       tagMap(snap.Tags),
				Spec: models.ResourceSpec{
					StorageGB: float64(aws.ToInt32(snap.VolumeSize)),
				},
				Currency:  "USD",
				CreatedAt: createdAt,
			})
		}
	}
	return out, nil
}

func (c *Collector) collectAddresses(ctx context.Context) ([]models.Resource, error) {
	page, err := c.clients.EC2.DescribeAddresses(ctx, &ec2svc.DescribeAddressesInput{})
	if err != nil {
		return nil, fmt.Errorf("DescribeAddresses: %w", err)
	}

	var out []models.Resource
	for _, addr := range page.Addresses {
		status := models.StatusActive
		if addr.AssociationId == nil {
			status = models.StatusUnattached
		}
		out = append(out, models.Resource{
			ID:         uuid.New(),
			Vendor:     "aws",
			ExternalID: aws.ToString(addr.AllocationId),
			Name:       aws.ToString(addr.PublicIp),
			Kind:       models.KindReservedIP,
			Region:     c.region,
			Status:     status,
			Tags:       tagMap(addr.Tags),
			Currency:   "USD",
		})
	}
	return out, nil
}

func (c *Collector) collectDatabases(ctx context.Context) ([]models.Resource, error) {
	paginator := rds.NewDescribeDBInstancesPaginator(c.clients.RDS, &rds.DescribeDBInstancesInput{})

	var out []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeDBInstances page: %w", err)
		}
		for _, db := range page.DBInstances {
			kind := databaseKind(aws.ToString(db.Engine))
			if kind == "" {
				continue
			}
			var createdAt time.Time
			if db.InstanceCreateTime != nil {
				createdAt = *db.InstanceCreateTime
			}
			out = append(out, models.Resource{
				ID:         uuid.New(),
				Vendor:     "aws",
				ExternalID: aws.ToString(db.DBInstanceIdentifier),
				Name:       aws.ToString(db.DBInstanceIdentifier),
				Kind:       kind,
				Region:     c.region,
				Status:     databaseStatus(aws.ToString(db.DBInstanceStatus)),
				Spec: models.ResourceSpec{
					StorageGB: float64(aws.ToInt32(db.AllocatedStorage)),
					// Primary plus read replicas; the advisor compares
					// cluster prices per billed host.
					NodeCount: 1 + len(db.ReadReplicaDBInstanceIdentifiers),
				},
				RawConfig: map[string]any{
					"instance_class": aws.ToString(db.DBInstanceClass),
					"engine":         aws.ToString(db.Engine),
				},
				Currency:  "USD",
				CreatedAt: createdAt,
			})
		}
	}
	return out, nil
}

func (c *Collector) collectLoadBalancers(ctx context.Context) ([]models.Resource, error) {
	paginator := elbv2.NewDescribeLoadBalancersPaginator(c.clients.ELB, &elbv2.DescribeLoadBalancersInput{})

	var out []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeLoadBalancers page: %w", err)
		}
		for _, lb := range page.LoadBalancers {
			var createdAt time.Time
			if lb.CreatedTime != nil {
				createdAt = *lb.CreatedTime
			}
			out = append(out, models.Resource{
				ID:         uuid.New(),
				Vendor:     "aws",
				ExternalID: aws.ToString(lb.LoadBalancerArn),
				Name:       aws.ToString(lb.LoadBalancerName),
				Kind:       models.KindLoadBalancer,
				Region:     c.region,
				Status:     models.StatusActive,
				RawConfig:  map[string]any{"type": string(lb.Type)},
				Currency:   "USD",
				CreatedAt:  createdAt,
			})
		}
	}
	return out, nil
}

// fetchAvgCPU retrieves the average CPUUtilization over [start, end) at
// 1-day granularity. ok is false when the call fails or no datapoints exist;
// the caller must leave the metrics tag unset so rules see "no data" rather
// than "idle at 0%".
func (c *Collector) fetchAvgCPU(ctx context.Context, instanceID string, start, end time.Time) (float64, bool) {
	out, err := c.clients.CW.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/EC2"),
		MetricName: aws.String("CPUUtilization"),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("InstanceId"), Value: aws.String(instanceID)},
		},
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(86400),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil || len(out.Datapoints) == 0 {
		if err != nil {
			c.logger.Warn("CloudWatch CPU lookup failed",
				zap.String("instance", instanceID), zap.Error(err))
		}
		return 0, false
	}

	var sum float64
	for _, dp := range out.Datapoints {
		sum += aws.ToFloat64(dp.Average)
	}
	return sum / float64(len(out.Datapoints)), true
}

// attributeCosts spreads month-to-date Cost Explorer service totals evenly
// over the resources billed by each service. An even split is a rough
// attribution; exact per-resource figures would need the CUR. Failures leave
// costs at zero.
func (c *Collector) attributeCosts(ctx context.Context, resources []models.Resource) {
	totals, err := c.serviceCosts(ctx)
	if err != nil {
		c.logger.Warn("Cost Explorer lookup failed, costs left at zero", zap.Error(err))
		return
	}

	counts := make(map[string]int)
	for i := range resources {
		counts[costService(resources[i].Kind)]++
	}
	for i := range resources {
		service := costService(resources[i].Kind)
		if counts[service] == 0 || totals[service] == 0 {
			continue
		}
		monthly := totals[service] / float64(counts[service])
		resources[i].MonthlyCost = monthly
		resources[i].DailyCost = monthly / 30
	}
}

func (c *Collector) serviceCosts(ctx context.Context) (map[string]float64, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out, err := c.clients.CE.GetCostAndUsage(ctx, &ce.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(monthStart.Format("2006-01-02")),
			End:   aws.String(now.AddDate(0, 0, 1).Format("2006-01-02")),
		},
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{"UnblendedCost"},
		GroupBy: []cetypes.GroupDefinition{
			{Type: cetypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("GetCostAndUsage: %w", err)
	}

	totals := make(map[string]float64)
	for _, result := range out.ResultsByTime {
		for _, group := range result.Groups {
			if len(group.Keys) == 0 {
				continue
			}
			amount, err := strconv.ParseFloat(aws.ToString(group.Metrics["UnblendedCost"].Amount), 64)
			if err != nil {
				continue
			}
			totals[group.Keys[0]] += amount
		}
	}
	return totals, nil
}

func costService(kind models.ResourceKind) string {
	switch kind {
	case models.KindPostgresCluster, models.KindMySQLCluster:
		return serviceRDS
	case models.KindLoadBalancer:
		return serviceELB
	default:
		return serviceEC2
	}
}

func instanceStatus(state *ec2types.InstanceState) models.ResourceStatus {
	if state == nil {
		return models.StatusUnknown
	}
	switch state.Name {
	case ec2types.InstanceStateNameRunning:
		return models.StatusActive
	case ec2types.InstanceStateNameStopped, ec2types.InstanceStateNameStopping:
		return models.StatusStopped
	case ec2types.InstanceStateNameTerminated, ec2types.InstanceStateNameShuttingDown:
		return models.StatusTerminated
	default:
		return models.StatusUnknown
	}
}

func databaseStatus(status string) models.ResourceStatus {
	switch status {
	case "available", "backing-up", "maintenance", "modifying":
		return models.StatusActive
	case "stopped", "stopping":
		return models.StatusStopped
	default:
		return models.StatusUnknown
	}
}

func databaseKind(engine string) models.ResourceKind {
	switch engine {
	case "postgres", "aurora-postgresql":
		return models.KindPostgresCluster
	case "mysql", "mariadb", "aurora-mysql":
		return models.KindMySQLCluster
	default:
		return ""
	}
}

func volumeStorageType(t ec2types.VolumeType) models.StorageType {
	switch t {
	case ec2types.VolumeTypeSt1, ec2types.VolumeTypeSc1, ec2types.VolumeTypeStandard:
		return models.StorageHDD
	case "":
		return models.StorageUnknown
	default:
		return models.StorageSSD
	}
}

func tagMap(tags []ec2types.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return out
}
