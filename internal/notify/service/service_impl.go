package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/kliring/reinsadmin/internal/clock"
	"github.com/kliring/reinsadmin/internal/config"
	notifydomain "github.com/kliring/reinsadmin/internal/notify/domain"
	obsmetrics "github.com/kliring/reinsadmin/internal/observability/metrics"
	"github.com/kliring/reinsadmin/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Cfg     config.Config
	Email   email.Provider
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	cfg     config.NotifyConfig
	email   email.Provider
	metrics *obsmetrics.Metrics
}

func NewService(p Params) notifydomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("notify.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		cfg:     p.Cfg.Notify,
		email:   p.Email,
		metrics: p.Metrics,
	}
}

var tokenPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// render substitutes {field_name} tokens against the snapshot fields.
// Unknown tokens stay in place so broken templates are visible, not silent.
func render(body string, fields map[string]any) string {
	return tokenPattern.ReplaceAllStringFunc(body, func(token string) string {
		name := token[1 : len(token)-1]
		value, ok := fields[name]
		if !ok {
			return token
		}
		return fmt.Sprintf("%v", value)
	})
}

// Dispatch resolves templates and recipients for the event and fans the
// messages out concurrently. One slow or failing recipient never blocks or
// cancels the others, and no outcome here reaches the transition's caller.
func (s *Service) Dispatch(ctx context.Context, event notifydomain.Event) {
	dispatchID := uuid.NewString()
	log := s.log.With(
		zap.String("dispatch_id", dispatchID),
		zap.String("object_type", event.ObjectType),
		zap.String("status_to", event.StatusTo),
		zap.String("entity_id", event.EntityID),
	)

	var settings []notifydomain.Setting
	if err := s.db.WithContext(ctx).Where("email_enabled = ?", true).Find(&settings).Error; err != nil {
		log.Warn("failed to load notification settings", zap.Error(err))
		return
	}

	type delivery struct {
		to      string
		role    string
		title   string
		message string
	}
	var deliveries []delivery

	for _, setting := range settings {
		if !typeEnabled(setting, event.ObjectType) {
			continue
		}
		tmpl, err := s.findTemplate(ctx, event.ObjectType, event.StatusTo, setting.Role)
		if err != nil {
			log.Warn("template lookup failed", zap.String("role", setting.Role), zap.Error(err))
			continue
		}
		if tmpl == nil {
			// Absence of a template is not a failure.
			log.Debug("no notification template", zap.String("role", setting.Role))
			continue
		}
		deliveries = append(deliveries, delivery{
			to:      setting.Email,
			role:    setting.Role,
			title:   render(tmpl.Title, event.Fields),
			message: render(tmpl.Body, event.Fields),
		})
	}

	if len(deliveries) == 0 {
		return
	}

	now := s.clock.Now()
	rows := make([]notifydomain.Notification, 0, len(deliveries))
	for _, d := range deliveries {
		rows = append(rows, notifydomain.Notification{
			ID:         s.genID.Generate(),
			Title:      d.title,
			Message:    d.message,
			TargetRole: d.role,
			Email:      d.to,
			IsRead:     false,
			CreatedAt:  now,
		})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		log.Warn("failed to store notifications", zap.Error(err))
	}

	timeout := time.Duration(s.cfg.RecipientTimeout) * time.Second
	limit := s.cfg.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	g := &errgroup.Group{}
	g.SetLimit(limit)
	for _, d := range deliveries {
		d := d
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := s.email.Send(sendCtx, d.to, d.title, d.message); err != nil {
				log.Warn("notification send failed",
					zap.String("to", d.to),
					zap.Error(err),
				)
				if s.metrics != nil {
					s.metrics.NotificationFailed()
				}
				return nil
			}
			if s.metrics != nil {
				s.metrics.NotificationSent()
			}
			return nil
		})
	}
	_ = g.Wait()
}

func typeEnabled(setting notifydomain.Setting, objectType string) bool {
	if setting.TypeFlags == nil {
		return true
	}
	raw, ok := setting.TypeFlags[objectType]
	if !ok {
		return true
	}
	enabled, ok := raw.(bool)
	if !ok {
		return true
	}
	return enabled
}

// findTemplate prefers a role-specific template and falls back to ALL.
func (s *Service) findTemplate(ctx context.Context, objectType, statusTo, role string) (*notifydomain.Template, error) {
	for _, recipient := range []string{role, notifydomain.RecipientAll} {
		var tmpl notifydomain.Template
		err := s.db.WithContext(ctx).
			Where("object_type = ? AND status_to = ? AND recipient_role = ?", objectType, statusTo, recipient).
			First(&tmpl).Error
		if err == nil {
			return &tmpl, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (s *Service) ListForRole(ctx context.Context, role string, unreadOnly bool) ([]notifydomain.Notification, error) {
	stmt := s.db.WithContext(ctx).Where("target_role = ?", role)
	if unreadOnly {
		stmt = stmt.Where("is_read = ?", false)
	}
	var out []notifydomain.Notification
	err := stmt.Order("created_at desc").Find(&out).Error
	return out, err
}

func (s *Service) MarkRead(ctx context.Context, id snowflake.ID) error {
	result := s.db.WithContext(ctx).
		Model(&notifydomain.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notifydomain.ErrNotificationNotFound
	}
	return nil
}
