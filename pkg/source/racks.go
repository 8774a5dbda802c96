package source

import (
	"context"
	"fmt"
	"net"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/sirupsen/logrus"
)

// EC2API is the subset of the EC2 client used by EC2RackResolver.
type EC2API interface {
	DescribeInstances(
		ctx context.Context,
		params *ec2.DescribeInstancesInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeInstancesOutput, error)
}

var _ EC2API = (*ec2.Client)(nil)

// EC2RackResolver fills in the rack of brokers that don't report one with the
// availability zone of their EC2 instance. Hosts are matched on private IP address or
// private DNS name.
type EC2RackResolver struct {
	client EC2API
	logger logrus.FieldLogger
}

// NewEC2RackResolver returns a new EC2RackResolver.
func NewEC2RackResolver(awsConfig aws.Config, logger logrus.FieldLogger) *EC2RackResolver {
	return NewEC2RackResolverWithClient(ec2.NewFromConfig(awsConfig), logger)
}

// NewEC2RackResolverWithClient returns an EC2RackResolver that uses the argument client.
func NewEC2RackResolverWithClient(client EC2API, logger logrus.FieldLogger) *EC2RackResolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EC2RackResolver{
		client: client,
		logger: logger,
	}
}

// Resolve updates the racks of t in place. Brokers whose instance isn't found keep their
// empty rack.
func (r *EC2RackResolver) Resolve(ctx context.Context, t *Topology) error {
	ips := []string{}
	names := []string{}

	for _, broker := range t.Brokers {
		if broker.Rack != "" || broker.Host == "" {
			continue
		}
		if net.ParseIP(broker.Host) != nil {
			ips = append(ips, broker.Host)
		} else {
			names = append(names, broker.Host)
		}
	}
	if len(ips) == 0 && len(names) == 0 {
		return nil
	}

	zones := map[string]string{}
	if err := r.lookup(ctx, "private-ip-address", ips, zones); err != nil {
		return err
	}
	if err := r.lookup(ctx, "private-dns-name", names, zones); err != nil {
		return err
	}

	for b := range t.Brokers {
		broker := &t.Brokers[b]
		if broker.Rack != "" || broker.Host == "" {
			continue
		}
		zone, ok := zones[broker.Host]
		if !ok {
			r.logger.Warnf("Could not find the EC2 instance of broker %d (%s)", broker.ID, broker.Host)
			continue
		}
		r.logger.Debugf("Broker %d is in availability zone %s", broker.ID, zone)
		broker.Rack = zone
	}
	return nil
}

func (r *EC2RackResolver) lookup(
	ctx context.Context,
	filterName string,
	values []string,
	zones map[string]string,
) error {
	if len(values) == 0 {
		return nil
	}

	paginator := ec2.NewDescribeInstancesPaginator(
		r.client,
		&ec2.DescribeInstancesInput{
			Filters: []types.Filter{
				{
					Name:   aws.String(filterName),
					Values: values,
				},
			},
		},
	)

	for paginator.HasMorePages() {
		resp, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("Error describing EC2 instances: %w", err)
		}

		for _, reservation := range resp.Reservations {
			for _, instance := range reservation.Instances {
				if instance.Placement == nil {
					continue
				}
				zone := aws.ToString(instance.Placement.AvailabilityZone)
				for _, networkInterface := range instance.NetworkInterfaces {
					zones[aws.ToString(networkInterface.PrivateIpAddress)] = zone
				}
				zones[aws.ToString(instance.PrivateIpAddress)] = zone
				zones[aws.ToString(instance.PrivateDnsName)] = zone
			}
		}
	}
	return nil
}
