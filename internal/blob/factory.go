package blob

import (
	"fmt"
	"strings"

	appcfg "github.com/fitcoach/diet-hub/internal/config"
)

type Logger interface {
	Printf(format string, v ...any)
}

// NewBlobStore builds a blob store from mode memory|s3|auto. Memory mode
// returns a nil Store: report bytes are kept inline on the report record.
func NewBlobStore(cfg appcfg.Config, logger Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.BlobMode))
	if mode == "" {
		mode = appcfg.BlobModeMemory
	}

	switch mode {
	case appcfg.BlobModeMemory:
		logf(logger, "INFO blob: mode=memory (forced)")
		return nil, appcfg.BlobModeMemory, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			logf(logger, "INFO blob.s3: %s", cfg.S3.DiagnosticsSummary())
			logf(logger, "INFO blob: mode=memory (auto, S3 not configured)")
			return nil, appcfg.BlobModeMemory, nil
		}

		store, err := NewS3Store(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)
		if err != nil {
			logf(logger, "WARN blob.s3: init_failed=%q, fallback=memory", err.Error())
			return nil, appcfg.BlobModeMemory, nil
		}

		logf(logger, "INFO blob: mode=s3 (auto, configured)")
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			logf(logger, "FATAL blob.s3: config incomplete, missing=%v", missing)
			logf(logger, "FATAL blob.s3: %s", cfg.S3.DiagnosticsSummary())
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		store, err := NewS3Store(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)
		if err != nil {
			logf(logger, "FATAL blob.s3: init_failed=%v", err)
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}

		logf(logger, "INFO blob: mode=s3 (forced)")
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
