package service

import (
	"context"
	"strings"
	"time"

	"github.com/Varun5711/easywedding/internal/cache"
	"github.com/Varun5711/easywedding/internal/events"
	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/models/invitation"
	"github.com/Varun5711/easywedding/internal/qrcode"
	"github.com/Varun5711/easywedding/internal/storage"
	"github.com/Varun5711/easywedding/internal/validation"
	"github.com/google/uuid"
)

// ViewPublisher hands view events to the analytics pipeline.
type ViewPublisher interface {
	Publish(ctx context.Context, event *events.ViewEvent) error
}

// DeviceStatsSource answers per-device view breakdowns.
type DeviceStatsSource interface {
	DeviceBreakdown(ctx context.Context, invitationUUID string) ([]invitation.DeviceStat, error)
}

type InvitationService struct {
	store   storage.InvitationStore
	cache   *cache.InvitationCache
	views   ViewPublisher
	devices DeviceStatsSource
	baseURL string
	ttl     time.Duration
	log     *logger.Logger
	now     func() time.Time
}

func NewInvitationService(store storage.InvitationStore, c *cache.InvitationCache, baseURL string, ttl time.Duration, log *logger.Logger) *InvitationService {
	return &InvitationService{
		store:   store,
		cache:   c,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		log:     log,
		now:     time.Now,
	}
}

// WithViewPublisher enables view tracking. Without it RecordView is a no-op.
func (s *InvitationService) WithViewPublisher(p ViewPublisher) *InvitationService {
	s.views = p
	return s
}

// WithDeviceStats enables the device breakdown in Stats.
func (s *InvitationService) WithDeviceStats(d DeviceStatsSource) *InvitationService {
	s.devices = d
	return s
}

func (s *InvitationService) Create(ctx context.Context, userID string, req *invitation.CreateRequest) (*invitation.CreateResponse, error) {
	if err := validation.ValidateInvitation(req); err != nil {
		return nil, newValidationError(err)
	}

	now := s.now().UTC()
	inv := &invitation.Invitation{
		UUID:         uuid.NewString(),
		UserID:       userID,
		GroomName:    strings.TrimSpace(req.GroomName),
		BrideName:    strings.TrimSpace(req.BrideName),
		WeddingDate:  req.WeddingDate,
		WeddingTime:  strings.TrimSpace(req.WeddingTime),
		VenueName:    strings.TrimSpace(req.VenueName),
		VenueAddress: strings.TrimSpace(req.VenueAddress),
		VenueMapLink: req.VenueMapLink,
		ContactInfo:  strings.TrimSpace(req.ContactInfo),
		Message:      strings.TrimSpace(req.Message),
		Photos:       append([]string{}, req.Photos...),
		Theme:        req.Theme,
		IsActive:     true,
		ExpiresAt:    now.Add(s.ttl),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, inv); err != nil {
		s.log.Error("create invitation: %v", err)
		return nil, internalError(err)
	}

	if err := s.cache.Set(ctx, inv); err != nil {
		s.log.Warn("cache set failed for %s: %v", inv.UUID, err)
	}

	shareURL := s.ShareURL(inv.UUID)
	qr, err := qrcode.DataURI(shareURL)
	if err != nil {
		s.log.Warn("qr code for %s: %v", inv.UUID, err)
	}

	s.log.Info("invitation created: uuid=%s user=%s", inv.UUID, userID)
	return &invitation.CreateResponse{
		Invitation: inv,
		ShareURL:   shareURL,
		QRCode:     qr,
	}, nil
}

// Get returns a publicly viewable invitation. Unknown, deactivated and expired
// invitations are all ErrNotFound.
func (s *InvitationService) Get(ctx context.Context, id string) (*invitation.Invitation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	inv, found, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn("cache get failed for %s: %v", id, err)
	}

	if !found {
		inv, err = s.store.GetByUUID(ctx, id)
		if err != nil {
			s.log.Error("get invitation %s: %v", id, err)
			return nil, internalError(err)
		}
		if inv == nil {
			return nil, ErrNotFound
		}
		if err := s.cache.Set(ctx, inv); err != nil {
			s.log.Warn("cache set failed for %s: %v", id, err)
		}
	}

	if !inv.Viewable(s.now()) {
		return nil, ErrNotFound
	}
	return inv, nil
}

func (s *InvitationService) ListByUser(ctx context.Context, userID string) ([]*invitation.Invitation, error) {
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("list invitations for %s: %v", userID, err)
		return nil, internalError(err)
	}
	return list, nil
}

// Stats is restricted to the invitation's owner.
func (s *InvitationService) Stats(ctx context.Context, userID, id string) (*invitation.Stats, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	inv, err := s.store.GetByUUID(ctx, id)
	if err != nil {
		s.log.Error("stats for %s: %v", id, err)
		return nil, internalError(err)
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	if inv.UserID != userID {
		return nil, ErrForbidden
	}

	stats := &invitation.Stats{UUID: inv.UUID, ViewCount: inv.ViewCount}
	if s.devices != nil {
		devices, err := s.devices.DeviceBreakdown(ctx, inv.UUID)
		if err != nil {
			s.log.Warn("device breakdown for %s: %v", inv.UUID, err)
		} else {
			stats.Devices = devices
		}
	}
	return stats, nil
}

// RecordView publishes a view event. Failures are logged and never reach the viewer.
func (s *InvitationService) RecordView(ctx context.Context, id, ip, userAgent, referer string) {
	if s.views == nil {
		return
	}

	err := s.views.Publish(ctx, &events.ViewEvent{
		InvitationUUID: id,
		ViewedAt:       s.now().UTC(),
		IP:             ip,
		UserAgent:      userAgent,
		Referer:        referer,
	})
	if err != nil {
		s.log.Warn("record view for %s: %v", id, err)
	}
}

func (s *InvitationService) ShareURL(id string) string {
	return s.baseURL + "/invite/" + id
}

// QRCode renders the share URL of a viewable invitation as a PNG.
func (s *InvitationService) QRCode(ctx context.Context, id string, size int) ([]byte, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	png, err := qrcode.PNG(s.ShareURL(id), size)
	if err != nil {
		s.log.Error("qr code for %s: %v", id, err)
		return nil, internalError(err)
	}
	return png, nil
}

// DeactivateExpired switches off invitations past their expiry and evicts them from
// the cache.
func (s *InvitationService) DeactivateExpired(ctx context.Context) (int64, error) {
	ids, err := s.store.DeactivateExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, internalError(err)
	}

	for _, id := range ids {
		if err := s.cache.Delete(ctx, id); err != nil {
			s.log.Warn("cache delete failed for %s: %v", id, err)
		}
	}
	return int64(len(ids)), nil
}

