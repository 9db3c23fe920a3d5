package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/velosync/velosync-cli/internal/core/domain"
)

func TestHistoryCmd_Empty(t *testing.T) {
	setupCLITest(t, &mockSyncer{report: &domain.SyncReport{}}, &mockHistoryStore{})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"history"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No transfers recorded yet.")
}

func TestHistoryCmd_ListsTransfers(t *testing.T) {
	history := &mockHistoryStore{transfers: []domain.Transfer{
		{
			RunID:      "run-1",
			ActivityID: 101,
			StartTime:  time.Date(2024, 11, 20, 9, 23, 45, 0, time.UTC),
			Bytes:      2048,
			Outcome:    domain.OutcomeUploaded,
			RecordedAt: time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			RunID:      "run-1",
			ActivityID: 102,
			StartTime:  time.Date(2024, 11, 19, 7, 0, 0, 0, time.UTC),
			Outcome:    domain.OutcomeFailed,
			RecordedAt: time.Date(2024, 11, 20, 10, 0, 5, 0, time.UTC),
		},
	}}
	setupCLITest(t, &mockSyncer{report: &domain.SyncReport{}}, history)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"history", "--limit", "5"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, 5, history.gotLimit)
	assert.Contains(t, buf.String(), "101")
	assert.Contains(t, buf.String(), "uploaded")
	assert.Contains(t, buf.String(), "102")
	assert.Contains(t, buf.String(), "failed")
	assert.Contains(t, buf.String(), "2.0 KiB")
}

func TestHistoryCmd_StoreError(t *testing.T) {
	setupCLITest(t, &mockSyncer{report: &domain.SyncReport{}}, &mockHistoryStore{err: errors.New("db locked")})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"history"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "list transfers")
}

func TestHistoryCmd_StoreUnavailable(t *testing.T) {
	setupCLITest(t, &mockSyncer{report: &domain.SyncReport{}}, nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"history"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "history store not available")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "2.0 KiB", formatBytes(2048))
	assert.Equal(t, "1.5 MiB", formatBytes(3*1<<19))
}
