package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// Disk thresholds for the maintenance job
const (
	CriticalFreeBytes = 500 * 1024 * 1024
	LowFreeBytes      = 5 * 1024 * 1024 * 1024
)

// diskUsage is swapped in tests
var diskUsage = func(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// BarPruner drops stored price bars older than a cutoff
type BarPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceJob checks database integrity, truncates WAL files, prunes old
// price bars and watches free disk space
type MaintenanceJob struct {
	databases     map[string]*database.DB
	dataDir       string
	pruner        BarPruner
	retentionDays int
	timeout       time.Duration
	now           func() time.Time
	log           zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(databases map[string]*database.DB, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		timeout:   5 * time.Minute,
		now:       time.Now,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// SetRetention enables pruning of bars older than days. Zero disables it.
func (j *MaintenanceJob) SetRetention(pruner BarPruner, days int) {
	j.pruner = pruner
	j.retentionDays = days
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "database_maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	startTime := time.Now()
	for name, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Integrity check failed")
			return fmt.Errorf("integrity check failed for %s: %w", name, err)
		}
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
		}
	}

	j.pruneBars(ctx)

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Int("databases", len(j.databases)).
		Msg("Database maintenance completed")
	return nil
}

// pruneBars is best effort. Pruned bars are fetched again on demand.
func (j *MaintenanceJob) pruneBars(ctx context.Context) {
	if j.pruner == nil || j.retentionDays <= 0 {
		return
	}
	cutoff := j.now().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.pruner.DeleteBefore(ctx, cutoff)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to prune old bars")
		return
	}
	j.log.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Pruned old bars")
}

func (j *MaintenanceJob) checkDiskSpace() error {
	free, err := diskUsage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to read disk usage: %w", err)
	}

	freeGB := float64(free) / 1e9
	switch {
	case free < CriticalFreeBytes:
		j.log.Error().Float64("free_gb", freeGB).Msg("Disk space critically low")
		return fmt.Errorf("only %.2f GB free in %s", freeGB, j.dataDir)
	case free < LowFreeBytes:
		j.log.Warn().Float64("free_gb", freeGB).Msg("Disk space running low")
	default:
		j.log.Debug().Float64("free_gb", freeGB).Msg("Disk space check")
	}
	return nil
}

// BackupJob uploads a backup and rotates old ones
type BackupJob struct {
	service       *BackupService
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates a scheduled backup job
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		timeout:       10 * time.Minute,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "ledger_backup"
}

// Run executes the backup job. A failed rotation is logged, not returned.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.service.CreateAndUpload(ctx); err != nil {
		return err
	}
	if _, err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}
