package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/kliring/reinsadmin/internal/clock"
	"github.com/kliring/reinsadmin/internal/config"
	notifydomain "github.com/kliring/reinsadmin/internal/notify/domain"
	"github.com/kliring/reinsadmin/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// recordingProvider captures sends and can fail selected recipients.
type recordingProvider struct {
	mu     sync.Mutex
	sent   []string
	failTo map[string]bool
}

func (p *recordingProvider) Send(ctx context.Context, to, subject, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failTo[to] {
		return errors.New("smtp unavailable")
	}
	p.sent = append(p.sent, to)
	return nil
}

func (p *recordingProvider) sentTo() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

func setupTest(t *testing.T, provider *recordingProvider) (*gorm.DB, *snowflake.Node, notifydomain.Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, seed.Migrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		GenID: node,
		Cfg: config.Config{
			Notify: config.NotifyConfig{MaxConcurrent: 4, RecipientTimeout: 2},
		},
		Email: provider,
	})
	return db, node, svc
}

func seedTemplate(t *testing.T, db *gorm.DB, node *snowflake.Node, objectType, statusTo, role, title, body string) {
	t.Helper()
	require.NoError(t, db.Create(&notifydomain.Template{
		ID:            node.Generate(),
		ObjectType:    objectType,
		StatusTo:      statusTo,
		RecipientRole: role,
		Title:         title,
		Body:          body,
		CreatedAt:     time.Now().UTC(),
	}).Error)
}

func seedSetting(t *testing.T, db *gorm.DB, node *snowflake.Node, email, role string, enabled bool, flags datatypes.JSONMap) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&notifydomain.Setting{
		ID:           node.Generate(),
		Email:        email,
		Role:         role,
		EmailEnabled: enabled,
		TypeFlags:    flags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Error)
}

func TestDispatchFansOutPerSetting(t *testing.T) {
	provider := &recordingProvider{}
	db, node, svc := setupTest(t, provider)

	seedTemplate(t, db, node, "nota", "ISSUED", "BRINS", "Nota issued", "Nota {nota_number} for amount {amount} has been issued.")
	seedTemplate(t, db, node, "nota", "ISSUED", "ALL", "Nota issued", "Nota {nota_number} has been issued.")
	seedSetting(t, db, node, "ops@brins.local", "BRINS", true, nil)
	seedSetting(t, db, node, "admin@reinsadmin.local", "ADMIN", true, nil)
	seedSetting(t, db, node, "silent@brins.local", "BRINS", false, nil)

	svc.Dispatch(context.Background(), notifydomain.Event{
		ObjectType: "nota",
		StatusTo:   "ISSUED",
		EntityID:   "42",
		Fields:     map[string]any{"nota_number": "NOTA/BATCH/42", "amount": "1000000"},
	})

	sent := provider.sentTo()
	assert.ElementsMatch(t, []string{"ops@brins.local", "admin@reinsadmin.local"}, sent)

	// In-app rows are stored with rendered bodies.
	var rows []notifydomain.Notification
	require.NoError(t, db.Order("email asc").Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		if row.TargetRole == "BRINS" {
			assert.Equal(t, "Nota NOTA/BATCH/42 for amount 1000000 has been issued.", row.Message)
		}
		assert.False(t, row.IsRead)
	}
}

func TestDispatchIsolatesRecipientFailures(t *testing.T) {
	provider := &recordingProvider{failTo: map[string]bool{"ops@brins.local": true}}
	db, node, svc := setupTest(t, provider)

	seedTemplate(t, db, node, "batch", "CLOSED", "ALL", "Batch closed", "Batch {batch_id} closed.")
	seedSetting(t, db, node, "ops@brins.local", "BRINS", true, nil)
	seedSetting(t, db, node, "ops@tugure.local", "TUGURE", true, nil)

	svc.Dispatch(context.Background(), notifydomain.Event{
		ObjectType: "batch",
		StatusTo:   "CLOSED",
		EntityID:   "7",
		Fields:     map[string]any{"batch_id": "BORD-2026-01"},
	})

	// The failing recipient never blocks the healthy one, and nothing retries.
	assert.Equal(t, []string{"ops@tugure.local"}, provider.sentTo())
}

func TestDispatchWithoutTemplateIsSilent(t *testing.T) {
	provider := &recordingProvider{}
	db, node, svc := setupTest(t, provider)

	seedSetting(t, db, node, "ops@brins.local", "BRINS", true, nil)

	svc.Dispatch(context.Background(), notifydomain.Event{
		ObjectType: "document",
		StatusTo:   "VERIFIED",
		EntityID:   "9",
	})

	assert.Empty(t, provider.sentTo())
	var count int64
	require.NoError(t, db.Model(&notifydomain.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDispatchHonorsTypeFlags(t *testing.T) {
	provider := &recordingProvider{}
	db, node, svc := setupTest(t, provider)

	seedTemplate(t, db, node, "claim", "APPROVED", "ALL", "Claim approved", "Claim {claim_no} approved.")
	seedSetting(t, db, node, "ops@brins.local", "BRINS", true, datatypes.JSONMap{"claim": false})
	seedSetting(t, db, node, "ops@tugure.local", "TUGURE", true, datatypes.JSONMap{"nota": false})

	svc.Dispatch(context.Background(), notifydomain.Event{
		ObjectType: "claim",
		StatusTo:   "APPROVED",
		EntityID:   "3",
		Fields:     map[string]any{"claim_no": "CLM-2026-01"},
	})

	// An opt-out for a different object type does not suppress this one.
	assert.Equal(t, []string{"ops@tugure.local"}, provider.sentTo())
}

func TestRenderLeavesUnknownTokens(t *testing.T) {
	out := render("Nota {nota_number} missing {unknown_token}.", map[string]any{"nota_number": "N-1"})
	assert.Equal(t, "Nota N-1 missing {unknown_token}.", out)
}

func TestMarkRead(t *testing.T) {
	provider := &recordingProvider{}
	db, node, svc := setupTest(t, provider)

	row := notifydomain.Notification{
		ID:         node.Generate(),
		Title:      "Claim approved",
		Message:    "Claim CLM-2026-01 approved.",
		TargetRole: "BRINS",
		Email:      "ops@brins.local",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, db.Create(&row).Error)

	require.NoError(t, svc.MarkRead(context.Background(), row.ID))

	unread, err := svc.ListForRole(context.Background(), "BRINS", true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	err = svc.MarkRead(context.Background(), node.Generate())
	assert.ErrorIs(t, err, notifydomain.ErrNotificationNotFound)
}
