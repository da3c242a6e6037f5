package listing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estatehub/listingguard/internal/audit"
	"github.com/estatehub/listingguard/internal/auth"
	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/matching"
	"github.com/estatehub/listingguard/internal/observability/metrics"
)

const entityType = "listing"

// DuplicateChecker scores a listing against the verified project catalog.
// *matching.Service implements it.
type DuplicateChecker interface {
	Check(ctx context.Context, q matching.Query) (*matching.Result, error)
}

// ServiceOptions wires the collaborators of a Service. Checker may be nil, in
// which case submissions rely on the stored duplicate annotation only.
type ServiceOptions struct {
	Checker DuplicateChecker
	Audit   audit.Sink
	Metrics *metrics.LifecycleMetrics
	Logger  logger.Logger
	Now     func() time.Time
	NewID   func() string
}

// Service runs lifecycle operations on behalf of an authenticated principal.
type Service struct {
	repo    Repository
	checker DuplicateChecker
	audit   audit.Sink
	metrics *metrics.LifecycleMetrics
	log     logger.Logger
	now     func() time.Time
	newID   func() string
}

// NewService creates a lifecycle service over repo.
func NewService(repo Repository, opts ServiceOptions) *Service {
	s := &Service{
		repo:    repo,
		checker: opts.Checker,
		audit:   opts.Audit,
		metrics: opts.Metrics,
		log:     opts.Logger,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if s.log == nil {
		s.log = logger.NewSlogLogger(nil, logger.LogLevelWarn, nil)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Draft holds the content of a new listing. Drafts may be incomplete.
type Draft struct {
	Title              string   `json:"title"`
	PropertyType       string   `json:"propertyType"`
	Intent             Intent   `json:"intent"`
	Price              float64  `json:"price"`
	ConstructionStatus string   `json:"constructionStatus"`
	ShortDescription   string   `json:"shortDescription"`
	City               string   `json:"city"`
	Community          string   `json:"community"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	DeveloperName      string   `json:"developerName"`
	AuthorizedToMarket bool     `json:"authorizedToMarket"`
}

// Patch changes the given fields of a listing. Nil fields are left unchanged.
type Patch struct {
	Title              *string  `json:"title"`
	PropertyType       *string  `json:"propertyType"`
	Intent             *Intent  `json:"intent"`
	Price              *float64 `json:"price"`
	ConstructionStatus *string  `json:"constructionStatus"`
	ShortDescription   *string  `json:"shortDescription"`
	City               *string  `json:"city"`
	Community          *string  `json:"community"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	DeveloperName      *string  `json:"developerName"`
	AuthorizedToMarket *bool    `json:"authorizedToMarket"`
}

func validateContent(intent Intent, price float64) error {
	if intent != "" && !intent.Valid() {
		return errors.Validationf(componentName, "intent must be sale or rent")
	}
	if price < 0 {
		return errors.Validationf(componentName, "price must not be negative")
	}
	return nil
}

// Create stores a new DRAFT owned by the calling agent.
func (s *Service) Create(ctx context.Context, p auth.Principal, d Draft) (l *Listing, err error) {
	defer func() { s.observe(EventEdit, err) }()

	if err := requireAgent(p); err != nil {
		return nil, err
	}
	if err := validateContent(d.Intent, d.Price); err != nil {
		return nil, err
	}

	now := s.now()
	l = &Listing{
		ID:                 s.newID(),
		AgentID:            p.ID,
		Status:             StatusDraft,
		Title:              strings.TrimSpace(d.Title),
		PropertyType:       strings.TrimSpace(d.PropertyType),
		Intent:             d.Intent,
		Price:              d.Price,
		ConstructionStatus: strings.TrimSpace(d.ConstructionStatus),
		ShortDescription:   strings.TrimSpace(d.ShortDescription),
		City:               strings.TrimSpace(d.City),
		Community:          strings.TrimSpace(d.Community),
		Latitude:           clonePtr(d.Latitude),
		Longitude:          clonePtr(d.Longitude),
		DeveloperName:      strings.TrimSpace(d.DeveloperName),
		AuthorizedToMarket: d.AuthorizedToMarket,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.emit(ctx, p, "create", l.ID, "", StatusDraft, nil)
	return l, nil
}

// Update edits a DRAFT or REJECTED listing. Changing anything the duplicate
// check depends on drops the cached annotation and any override.
func (s *Service) Update(ctx context.Context, p auth.Principal, id string, patch Patch) (l *Listing, err error) {
	defer func() { s.observe(EventEdit, err) }()

	if err := requireAgent(p); err != nil {
		return nil, err
	}
	if patch.Intent != nil || patch.Price != nil {
		intent, price := Intent(""), 0.0
		if patch.Intent != nil {
			intent = *patch.Intent
		}
		if patch.Price != nil {
			price = *patch.Price
		}
		if err := validateContent(intent, price); err != nil {
			return nil, err
		}
	}

	return s.repo.Update(ctx, id, func(l *Listing) (*Effects, error) {
		if err := ownedBy(l, p); err != nil {
			return nil, err
		}
		if _, err := Transition(l.Status, EventEdit); err != nil {
			return nil, err
		}
		if applyPatch(l, patch) {
			l.clearDuplicate()
		}
		l.UpdatedAt = s.now()
		return nil, nil
	})
}

// applyPatch reports whether a field used by the duplicate check changed
func applyPatch(l *Listing, p Patch) (material bool) {
	setString := func(dst *string, src *string, isMaterial bool) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if v != *dst && isMaterial {
			material = true
		}
		*dst = v
	}
	setFloat := func(dst **float64, src *float64) {
		if src == nil {
			return
		}
		if *dst == nil || **dst != *src {
			material = true
		}
		*dst = clonePtr(src)
	}

	setString(&l.Title, p.Title, true)
	setString(&l.PropertyType, p.PropertyType, false)
	setString(&l.ConstructionStatus, p.ConstructionStatus, false)
	setString(&l.ShortDescription, p.ShortDescription, false)
	setString(&l.City, p.City, true)
	setString(&l.Community, p.Community, true)
	setString(&l.DeveloperName, p.DeveloperName, true)
	setFloat(&l.Latitude, p.Latitude)
	setFloat(&l.Longitude, p.Longitude)

	if p.Intent != nil {
		l.Intent = *p.Intent
	}
	if p.Price != nil {
		if *p.Price != l.Price {
			material = true
		}
		l.Price = *p.Price
	}
	if p.AuthorizedToMarket != nil {
		l.AuthorizedToMarket = *p.AuthorizedToMarket
	}
	return material
}

// AddMedia attaches a media item. A new COVER replaces the existing one.
func (s *Service) AddMedia(ctx context.Context, p auth.Principal, id string, category MediaCategory, url string) (l *Listing, err error) {
	defer func() { s.observe(EventEdit, err) }()

	if err := requireAgent(p); err != nil {
		return nil, err
	}
	if !category.Valid() {
		return nil, errors.Validationf(componentName, "unknown media category %q", category)
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.Validationf(componentName, "media url is required")
	}

	return s.repo.Update(ctx, id, func(l *Listing) (*Effects, error) {
		if err := ownedBy(l, p); err != nil {
			return nil, err
		}
		if _, err := Transition(l.Status, EventEdit); err != nil {
			return nil, err
		}

		if category == MediaCover {
			l.Media = removeMedia(l.Media, func(m Media) bool { return m.Category == MediaCover })
		}
		position := 0
		for _, m := range l.Media {
			position = max(position, m.Position+1)
		}
		l.Media = append(l.Media, Media{
			ID:        s.newID(),
			ListingID: l.ID,
			Category:  category,
			URL:       url,
			Position:  position,
		})
		l.UpdatedAt = s.now()
		return nil, nil
	})
}

// RemoveMedia detaches a media item.
func (s *Service) RemoveMedia(ctx context.Context, p auth.Principal, id, mediaID string) (l *Listing, err error) {
	defer func() { s.observe(EventEdit, err) }()

	if err := requireAgent(p); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, func(l *Listing) (*Effects, error) {
		if err := ownedBy(l, p); err != nil {
			return nil, err
		}
		if _, err := Transition(l.Status, EventEdit); err != nil {
			return nil, err
		}
		before := len(l.Media)
		l.Media = removeMedia(l.Media, func(m Media) bool { return m.ID == mediaID })
		if len(l.Media) == before {
			return nil, errors.NotFoundf(componentName, "media %s not found", mediaID)
		}
		l.UpdatedAt = s.now()
		return nil, nil
	})
}

func removeMedia(media []Media, drop func(Media) bool) []Media {
	out := media[:0:0]
	for _, m := range media {
		if !drop(m) {
			out = append(out, m)
		}
	}
	return out
}

// CheckDuplicates runs an advisory duplicate check for a listing. The result is
// stored on the listing while it is editable.
func (s *Service) CheckDuplicates(ctx context.Context, p auth.Principal, id string) (*matching.Result, *Listing, error) {
	l, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}
	if s.checker == nil {
		return nil, nil, errors.Newf("duplicate checking is not configured").
			Category(errors.CategoryUpstreamUnavailable).
			Component(componentName).
			Build()
	}

	result, err := s.checker.Check(ctx, l.MatchQuery())
	if err != nil {
		return nil, nil, err
	}
	if !l.Status.Editable() || p.ID != l.AgentID {
		return result, l, nil
	}

	updated, err := s.repo.Update(ctx, id, func(l *Listing) (*Effects, error) {
		if _, err := Transition(l.Status, EventEdit); err != nil {
			return nil, err
		}
		l.annotate(result)
		return nil, nil
	})
	if err != nil {
		s.observe(EventEdit, err)
		return nil, nil, err
	}
	return result, updated, nil
}

// Get returns a listing visible to p: its owner or any moderator.
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (*Listing, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsModerator() && l.AgentID != p.ID {
		return nil, NotFound(id)
	}
	return l, nil
}

// ListPending returns the moderation queue, oldest submission first.
func (s *Service) ListPending(ctx context.Context, p auth.Principal, limit int) ([]*Listing, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	return s.repo.ListByStatus(ctx, StatusPendingReview, limit)
}

// Submit moves a DRAFT or REJECTED listing to PENDING_REVIEW.
//
// The duplicate score is recomputed before the transition runs. If the catalog
// cannot be reached the stored annotation is used instead; without one the
// submission fails as upstream unavailable. confirmOverride is the agent's
// confirmation of a strong duplicate warning.
func (s *Service) Submit(ctx context.Context, p auth.Principal, id string, confirmOverride bool) (l *Listing, err error) {
	defer func() { s.observe(EventSubmit, err) }()

	if err := requireAgent(p); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	// skip the catalog round trip for listings that cannot be submitted anyway
	if _, err := Transition(current.Status, EventSubmit); err != nil {
		return nil, err
	}

	fresh, checkErr := s.recheck(ctx, current)

	var before Status
	var override *DuplicateOverride
	l, err = s.repo.Update(ctx, id, func(l *Listing) (*Effects, error) {
		if err := ownedBy(l, p); err != nil {
			return nil, err
		}
		// the duplicate result belongs to the version that was scored
		if l.Version != current.Version {
			return nil, ConcurrentModification(l.ID)
		}
		next, err := Transition(l.Status, EventSubmit)
		if err != nil {
			return nil, err
		}
		if err := validateForSubmit(l); err != nil {
			return nil, err
		}

		switch {
		case fresh != nil:
			l.annotate(fresh)
		case checkErr != nil && l.DuplicateScore == nil:
			return nil, errors.New(checkErr).
				Category(errors.CategoryUpstreamUnavailable).
				Component(componentName).
				Context("listing_id", l.ID).
				Build()
		}

		overridden, err := applyDuplicatePolicy(l, confirmOverride)
		if err != nil {
			return nil, err
		}

		now := s.now()
		before = l.Status
		l.Status = next
		l.SubmittedAt = &now
		l.RejectionReason = ""
		l.UpdatedAt = now

		if !overridden {
			return nil, nil
		}
		override = &DuplicateOverride{
			ID:        s.newID(),
			ListingID: l.ID,
			AgentID:   p.ID,
			ProjectID: l.DuplicateMatchedProjectID,
			Score:     *l.DuplicateScore,
			CreatedAt: now,
		}
		return &Effects{Override: override}, nil
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if l.DuplicateScore != nil {
		meta["duplicate_score"] = *l.DuplicateScore
	}
	if override != nil {
		s.metrics.RecordOverride()
		meta["override_project_id"] = override.ProjectID
		s.log.Info("duplicate override confirmed",
			logger.String("listing_id", l.ID),
			logger.String("project_id", override.ProjectID),
			logger.Int("score", override.Score))
	}
	if checkErr != nil {
		meta["duplicate_check"] = "stored"
	}
	s.emit(ctx, p, EventSubmit.String(), l.ID, before, l.Status, meta)
	return l, nil
}

// recheck runs the duplicate check for a submission. A failed check is logged
// and reported to the caller, which falls back to the stored annotation.
func (s *Service) recheck(ctx context.Context, l *Listing) (*matching.Result, error) {
	if s.checker == nil {
		return nil, nil
	}
	result, err := s.checker.Check(ctx, l.MatchQuery())
	if err != nil {
		s.log.Warn("duplicate check failed during submission, using stored annotation",
			logger.String("listing_id", l.ID),
			logger.Bool("has_annotation", l.DuplicateScore != nil),
			logger.Error(err))
		return nil, err
	}
	return result, nil
}

// Approve publishes a PENDING_REVIEW listing after recomputing the checklist.
func (s *Service) Approve(ctx context.Context, p auth.Principal, id string) (l *Listing, err error) {
	defer func() { s.observe(EventApprove, err) }()

	if err := requireModerator(p); err != nil {
		return nil, err
	}
	l, err = s.repo.Update(ctx, id, func(l *Listing) (*Effects, error) {
		next, err := Transition(l.Status, EventApprove)
		if err != nil {
			return nil, err
		}
		if err := validateForApproval(l); err != nil {
			return nil, err
		}
		now := s.now()
		l.Status = next
		l.ReviewedAt = &now
		l.ReviewedBy = p.ID
		l.UpdatedAt = now
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, p, EventApprove.String(), l.ID, StatusPendingReview, l.Status, nil)
	return l, nil
}

// Reject returns a PENDING_REVIEW listing to the agent with a reason. Only the
// reason and the status change.
func (s *Service) Reject(ctx context.Context, p auth.Principal, id, reason string) (l *Listing, err error) {
	defer func() { s.observe(EventReject, err) }()

	if err := requireModerator(p); err != nil {
		return nil, err
	}
	reason, err = validateRejectReason(reason)
	if err != nil {
		return nil, err
	}
	l, err = s.repo.Update(ctx, id, func(l *Listing) (*Effects, error) {
		next, err := Transition(l.Status, EventReject)
		if err != nil {
			return nil, err
		}
		l.Status = next
		l.RejectionReason = reason
		l.UpdatedAt = s.now()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, p, EventReject.String(), l.ID, StatusPendingReview, l.Status, map[string]any{"reason": reason})
	return l, nil
}

// Archive retires an APPROVED listing. There is no way back.
func (s *Service) Archive(ctx context.Context, p auth.Principal, id string) (l *Listing, err error) {
	defer func() { s.observe(EventArchive, err) }()

	if err := requireAgent(p); err != nil {
		return nil, err
	}
	l, err = s.repo.Update(ctx, id, func(l *Listing) (*Effects, error) {
		if err := ownedBy(l, p); err != nil {
			return nil, err
		}
		next, err := Transition(l.Status, EventArchive)
		if err != nil {
			return nil, err
		}
		now := s.now()
		l.Status = next
		l.ArchivedAt = &now
		l.ArchivedBy = p.ID
		l.UpdatedAt = now
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, p, EventArchive.String(), l.ID, StatusApproved, l.Status, nil)
	return l, nil
}

// Clone copies an APPROVED listing into a new DRAFT linked back to it. The
// original is not modified. The duplicate annotation is not copied, the clone
// is checked again when it is submitted.
func (s *Service) Clone(ctx context.Context, p auth.Principal, id string) (l *Listing, err error) {
	defer func() { s.observe(EventClone, err) }()

	if err := requireAgent(p); err != nil {
		return nil, err
	}
	orig, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	status, err := Transition(orig.Status, EventClone)
	if err != nil {
		return nil, err
	}

	now := s.now()
	l = &Listing{
		ID:                 s.newID(),
		AgentID:            orig.AgentID,
		Status:             status,
		Title:              orig.Title,
		PropertyType:       orig.PropertyType,
		Intent:             orig.Intent,
		Price:              orig.Price,
		ConstructionStatus: orig.ConstructionStatus,
		ShortDescription:   orig.ShortDescription,
		City:               orig.City,
		Community:          orig.Community,
		Latitude:           clonePtr(orig.Latitude),
		Longitude:          clonePtr(orig.Longitude),
		DeveloperName:      orig.DeveloperName,
		AuthorizedToMarket: orig.AuthorizedToMarket,
		ClonedFromID:       orig.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for _, m := range orig.Media {
		l.Media = append(l.Media, Media{
			ID:        s.newID(),
			ListingID: l.ID,
			Category:  m.Category,
			URL:       m.URL,
			Position:  m.Position,
		})
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.emit(ctx, p, EventClone.String(), l.ID, "", l.Status, map[string]any{"cloned_from": orig.ID})
	return l, nil
}

// Overrides returns the override log of a listing visible to p.
func (s *Service) Overrides(ctx context.Context, p auth.Principal, id string) ([]DuplicateOverride, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.repo.Overrides(ctx, id)
}

func requireAgent(p auth.Principal) error {
	if !p.IsAgent() {
		return forbidden("only agents can manage listings")
	}
	return nil
}

func requireModerator(p auth.Principal) error {
	if !p.IsModerator() {
		return forbidden("only moderators can review listings")
	}
	return nil
}

func forbidden(msg string) error {
	return errors.Newf("%s", msg).
		Category(errors.CategoryForbidden).
		Component(componentName).
		Build()
}

// ownedBy hides listings of other agents behind a not-found error
func ownedBy(l *Listing, p auth.Principal) error {
	if l.AgentID != p.ID {
		return NotFound(l.ID)
	}
	return nil
}

// emit sends an audit entry. Audit failures never undo a committed transition.
func (s *Service) emit(ctx context.Context, p auth.Principal, action, id string, before, after Status, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, audit.Entry{
		EntityType:  entityType,
		EntityID:    id,
		Action:      action,
		ActorID:     p.ID,
		BeforeState: string(before),
		AfterState:  string(after),
		Meta:        meta,
		At:          s.now(),
	})
	if err != nil {
		s.log.Error("failed to record audit entry",
			logger.String("listing_id", id),
			logger.String("action", action),
			logger.Error(err))
	}
}

func (s *Service) observe(event Event, err error) {
	switch {
	case err == nil:
		s.metrics.RecordTransition(string(event), metrics.StatusSuccess)
	case errors.IsValidation(err):
		s.metrics.RecordTransition(string(event), metrics.OutcomeValidation)
	case errors.IsConflict(err):
		if errors.Is(err, ErrConcurrentModification) {
			s.metrics.RecordVersionConflict()
		}
		s.metrics.RecordTransition(string(event), metrics.OutcomeConflict)
	case errors.IsCategory(err, errors.CategoryForbidden):
		s.metrics.RecordTransition(string(event), metrics.OutcomeForbidden)
	default:
		s.metrics.RecordTransition(string(event), metrics.StatusError)
	}
}
