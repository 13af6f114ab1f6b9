package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/prometheus/client_golang/prometheus"

	appconfig "marketeye/config"
	"marketeye/logger"
)

const cwBatchLimit = 20

// CloudWatchPublisher mirrors the prometheus registry to CloudWatch on an
// interval. Publishing is best-effort: when the AWS configuration cannot be
// loaded the publisher stays disabled and only logs a warning.
type CloudWatchPublisher struct {
	client    *cloudwatch.Client
	namespace string
	interval  time.Duration
	log       *logger.Log
}

// NewCloudWatchPublisher initialises the CloudWatch client for the given
// region and namespace. A nil publisher is returned when publishing is
// disabled or the AWS configuration is unavailable.
func NewCloudWatchPublisher(cfg appconfig.CloudWatchConfig, log *logger.Log) *CloudWatchPublisher {
	if !cfg.Enabled {
		return nil
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		log.WithComponent("cloudwatch").WithError(err).Warn("failed to load AWS configuration; CloudWatch metrics disabled")
		return nil
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "MarketEye"
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	log.WithComponent("cloudwatch").WithFields(logger.Fields{
		"region":    cfg.Region,
		"namespace": namespace,
	}).Info("initialized CloudWatch client")

	return &CloudWatchPublisher{
		client:    cloudwatch.NewFromConfig(awsCfg),
		namespace: namespace,
		interval:  interval,
		log:       log,
	}
}

// Start publishes on the configured interval until ctx is cancelled.
func (p *CloudWatchPublisher) Start(ctx context.Context) {
	if p == nil {
		return
	}
	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.publish(ctx)
			}
		}
	}()
}

func (p *CloudWatchPublisher) publish(ctx context.Context) {
	log := p.log.WithComponent("cloudwatch")

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		log.WithError(err).Warn("failed to gather metrics")
		return
	}

	var data []cwtypes.MetricDatum
	for _, mf := range families {
		name := mf.GetName()
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}

			var dims []cwtypes.Dimension
			for _, lp := range m.GetLabel() {
				dims = append(dims, cwtypes.Dimension{
					Name:  aws.String(lp.GetName()),
					Value: aws.String(lp.GetValue()),
				})
			}

			data = append(data, cwtypes.MetricDatum{
				MetricName: aws.String(name),
				Dimensions: dims,
				Unit:       cwtypes.StandardUnitCount,
				Value:      aws.Float64(value),
			})
		}
	}

	for len(data) > 0 {
		batch := data
		if len(batch) > cwBatchLimit {
			batch = batch[:cwBatchLimit]
		}
		data = data[len(batch):]

		_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: batch,
		})
		if err != nil {
			log.WithError(err).Warn("failed to publish metrics to CloudWatch")
			return
		}
	}
}
