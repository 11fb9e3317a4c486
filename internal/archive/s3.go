package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

// S3API is the subset of the S3 client used by S3Archive.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Archive writes a scrubbed copy of each package to S3 for analysis.
type S3Archive struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

var _ narrative.PackageSink = (*S3Archive)(nil)

// NewS3Archive creates an archive. If bucket is empty, all operations are no-ops.
func NewS3Archive(s3Client S3API, bucket string, logger *logging.Logger) *S3Archive {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Archive{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if archival is configured (bucket is set).
func (a *S3Archive) Enabled() bool {
	return a != nil && a.bucket != "" && a.s3Client != nil
}

// Persist writes the scrubbed package as JSON and appends it to the manifest.
func (a *S3Archive) Persist(ctx context.Context, record narrative.PackageRecord) error {
	if !a.Enabled() {
		return nil
	}

	scrubbed := ScrubRecord(record)
	data, err := json.Marshal(scrubbed)
	if err != nil {
		return fmt.Errorf("archive: marshal package: %w", err)
	}

	at := record.FinalizedAt.UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	key := fmt.Sprintf("packages/v1/by-date/%d/%02d/%02d/%s.json",
		at.Year(), at.Month(), at.Day(), scrubbed.SessionID)

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", key, err)
	}
	a.logger.Info("archived scenario package", "s3_key", key, "judgment", record.Judgment)

	entry := ManifestEntry{
		SessionHash:  scrubbed.SessionID,
		S3Key:        key,
		Judgment:     record.Judgment,
		SelectedSlot: record.SelectedSlot,
		Persona:      selectedPersona(record),
		Adaptations:  len(record.Adaptations),
		TurnCount:    len(record.Transcript),
		ArchivedAt:   at.Format(time.RFC3339),
	}
	if err := a.AppendManifest(ctx, at, entry); err != nil {
		// The package itself is archived; a missing manifest line can be rebuilt from the objects.
		a.logger.Warn("failed to append manifest", "error", err, "s3_key", key)
	}
	return nil
}

// AppendManifest appends a JSONL line to the monthly manifest file using
// read-modify-write.
func (a *S3Archive) AppendManifest(ctx context.Context, at time.Time, entry ManifestEntry) error {
	if !a.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}
	manifestKey := fmt.Sprintf("packages/v1/manifests/%d-%02d.jsonl", at.Year(), at.Month())

	var existing []byte
	getResp, err := a.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(manifestKey),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(getResp.Body)
		getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		a.logger.Debug("manifest not found, creating new", "key", manifestKey)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	return errors.As(err, &nf)
}

func selectedPersona(record narrative.PackageRecord) string {
	for _, v := range record.Scenarios {
		if v.Slot == record.SelectedSlot {
			return v.Persona
		}
	}
	return ""
}
