package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/archive"
	appconfig "github.com/miz-art/Micro-narrativesxHarms-June25/internal/config"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

// BuildPackageSink assembles where finished packages go. DynamoDB and Postgres
// are durable and required when configured; the S3 copy and the SQS notice are
// best-effort. With nothing durable configured, packages are only logged.
func BuildPackageSink(cfg *appconfig.Config, awsCfg *aws.Config, pool *pgxpool.Pool, logger *logging.Logger) narrative.PackageSink {
	if logger == nil {
		logger = logging.Default()
	}

	var required []narrative.PackageSink
	if awsCfg != nil && cfg.PackageTable != "" {
		required = append(required, archive.NewDynamoSink(dynamodb.NewFromConfig(*awsCfg), cfg.PackageTable, logger))
		logger.Info("package sink enabled", "sink", "dynamodb", "table", cfg.PackageTable)
	}
	if pool != nil {
		required = append(required, archive.NewPostgresSink(pool))
		logger.Info("package sink enabled", "sink", "postgres")
	}
	if len(required) == 0 {
		logger.Warn("no durable package store configured; packages are only logged")
		required = append(required, archive.NewLogSink(logger))
	}

	sink := archive.NewMultiSink(logger, required...)
	if awsCfg == nil {
		return sink
	}
	if cfg.ArchiveBucket != "" {
		sink.WithBestEffort(archive.NewS3Archive(s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		}), cfg.ArchiveBucket, logger))
		logger.Info("package archive copy enabled", "bucket", cfg.ArchiveBucket)
	}
	if cfg.PackageQueueURL != "" {
		sink.WithBestEffort(archive.NewSQSNotifier(sqs.NewFromConfig(*awsCfg), cfg.PackageQueueURL))
		logger.Info("package notices enabled", "queue", cfg.PackageQueueURL)
	}
	return sink
}
