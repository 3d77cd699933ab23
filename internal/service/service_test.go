package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"cfp-backend/internal/domain"
	"cfp-backend/internal/repository"

	"go.uber.org/zap"
)

// memStore is a shared in-memory backing store for the fake
// repositories. It enforces the same domain rules as the pgx
// implementations so service tests exercise real transition behavior.
type memStore struct {
	mu         sync.Mutex
	events     map[string]*domain.Event
	roles      map[string]domain.Role              // teamID|userID
	proposals  map[string]*domain.Proposal
	reviews    map[string]map[string]domain.Review // proposalID -> reviewerID
	formats    map[string]map[string]bool          // proposalID -> formatID
	categories map[string]map[string]bool
	tags       map[string]map[string]bool
	seq        int
}

func newMemStore() *memStore {
	return &memStore{
		events:     make(map[string]*domain.Event),
		roles:      make(map[string]domain.Role),
		proposals:  make(map[string]*domain.Proposal),
		reviews:    make(map[string]map[string]domain.Review),
		formats:    make(map[string]map[string]bool),
		categories: make(map[string]map[string]bool),
		tags:       make(map[string]map[string]bool),
	}
}

func addFacet(facets map[string]map[string]bool, proposalID, facetID string) {
	if facets[proposalID] == nil {
		facets[proposalID] = make(map[string]bool)
	}
	facets[proposalID][facetID] = true
}

func (s *memStore) addFormat(proposalID, formatID string) {
	addFacet(s.formats, proposalID, formatID)
}

func (s *memStore) addCategory(proposalID, categoryID string) {
	addFacet(s.categories, proposalID, categoryID)
}

func (s *memStore) addTag(proposalID, tagID string) {
	addFacet(s.tags, proposalID, tagID)
}

func (s *memStore) addEvent(e domain.Event) *domain.Event {
	s.events[e.ID] = &e
	return &e
}

func (s *memStore) addRole(teamID, userID string, role domain.Role) {
	s.roles[teamID+"|"+userID] = role
}

func (s *memStore) addProposal(p domain.Proposal) *domain.Proposal {
	if p.DeliberationStatus == "" {
		p.DeliberationStatus = domain.DeliberationPending
	}
	if p.ConfirmationStatus == "" {
		p.ConfirmationStatus = domain.ConfirmationNone
	}
	if p.CreatedAt.IsZero() {
		s.seq++
		p.CreatedAt = time.Unix(int64(s.seq), 0)
	}
	s.proposals[p.ID] = &p
	return &p
}

func (s *memStore) recompute(proposalID string) domain.ReviewSummary {
	var reviews []domain.Review
	for _, r := range s.reviews[proposalID] {
		reviews = append(reviews, r)
	}
	summary := domain.ComputeSummary(reviews)

	p := s.proposals[proposalID]
	p.ReviewAverage = summary.Average
	p.ReviewPositives = summary.Positives
	p.ReviewNegatives = summary.Negatives
	return summary
}

type memEventRepo struct{ store *memStore }

func (r *memEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if e, ok := r.store.events[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, nil
}

func (r *memEventRepo) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.events {
		if e.Slug == slug {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

type memMembershipRepo struct{ store *memStore }

func (r *memMembershipRepo) RoleOf(ctx context.Context, userID, teamID string) (domain.Role, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.roles[teamID+"|"+userID], nil
}

type memReviewRepo struct{ store *memStore }

func (r *memReviewRepo) SaveReview(ctx context.Context, review *domain.Review) (domain.ReviewSummary, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.proposals[review.ProposalID]; !ok {
		return domain.ReviewSummary{}, domain.ErrProposalNotFound
	}
	if r.store.reviews[review.ProposalID] == nil {
		r.store.reviews[review.ProposalID] = make(map[string]domain.Review)
	}
	r.store.reviews[review.ProposalID][review.ReviewerID] = *review
	return r.store.recompute(review.ProposalID), nil
}

func (r *memReviewRepo) DeleteReview(ctx context.Context, proposalID, reviewerID string) (domain.ReviewSummary, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.proposals[proposalID]; !ok {
		return domain.ReviewSummary{}, domain.ErrProposalNotFound
	}
	delete(r.store.reviews[proposalID], reviewerID)
	return r.store.recompute(proposalID), nil
}

func (r *memReviewRepo) GetReview(ctx context.Context, proposalID, reviewerID string) (*domain.Review, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if review, ok := r.store.reviews[proposalID][reviewerID]; ok {
		return &review, nil
	}
	return nil, nil
}

func (r *memReviewRepo) ListByProposal(ctx context.Context, proposalID string) ([]domain.ReviewWithReviewer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.ReviewWithReviewer
	for reviewer, review := range r.store.reviews[proposalID] {
		out = append(out, domain.ReviewWithReviewer{Review: review, ReviewerName: reviewer})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewerName < out[j].ReviewerName })
	return out, nil
}

type memProposalRepo struct{ store *memStore }

func (r *memProposalRepo) GetByID(ctx context.Context, id string) (*domain.Proposal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p, ok := r.store.proposals[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (r *memProposalRepo) Create(ctx context.Context, proposal *domain.Proposal, speaker domain.Speaker) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	proposal.DeliberationStatus = domain.DeliberationPending
	proposal.ConfirmationStatus = domain.ConfirmationNone
	proposal.Speakers = []domain.Speaker{speaker}
	r.store.addProposal(*proposal)
	return nil
}

func (r *memProposalRepo) CountBySpeaker(ctx context.Context, eventID, speakerID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, p := range r.store.proposals {
		if p.EventID == eventID && p.HasSpeaker(speakerID) {
			count++
		}
	}
	return count, nil
}

func (r *memProposalRepo) ApplyDeliberation(ctx context.Context, id string, outcome domain.DeliberationStatus, force bool) (*domain.Proposal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.proposals[id]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}
	if err := p.ApplyDeliberation(outcome, force); err != nil {
		return nil, err
	}
	copied := *p
	return &copied, nil
}

func (r *memProposalRepo) ApplyConfirmation(ctx context.Context, id, speakerID string, answer domain.ConfirmationStatus) (*domain.Proposal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.proposals[id]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}
	if !p.HasSpeaker(speakerID) {
		return nil, domain.ErrNotProposalSpeaker
	}
	if err := p.ApplyConfirmation(answer); err != nil {
		return nil, err
	}
	copied := *p
	return &copied, nil
}

func (r *memProposalRepo) Search(ctx context.Context, eventID string, spec repository.SearchSpec) ([]domain.ProposalCard, int, error) {
	ids, err := r.ListIDs(ctx, eventID, spec.Filters, spec.CallerID)
	if err != nil {
		return nil, 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var items []domain.ProposalCard
	for _, id := range ids {
		p := r.store.proposals[id]
		card := domain.ProposalCard{
			ID:                 p.ID,
			Title:              p.Title,
			DeliberationStatus: p.DeliberationStatus,
			ConfirmationStatus: p.ConfirmationStatus,
			CreatedAt:          p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if spec.IncludeSpeakers {
			card.Speakers = p.Speakers
		}
		if spec.IncludeReviews {
			card.ReviewAverage = p.ReviewAverage
			positives, negatives := p.ReviewPositives, p.ReviewNegatives
			card.ReviewPositives = &positives
			card.ReviewNegatives = &negatives
		}
		if review, ok := r.store.reviews[p.ID][spec.CallerID]; ok {
			feeling := review.Feeling
			card.MyFeeling = &feeling
			card.MyNote = review.Note
		}
		items = append(items, card)
	}

	// Score ordering only applies when review fields are selectable,
	// mirroring the SQL path; otherwise newest-first stands.
	if spec.Filters.Sort == domain.SortHighest && spec.IncludeReviews {
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].ReviewAverage, items[j].ReviewAverage
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return *a > *b
		})
	}

	total := len(items)
	end := spec.Offset + spec.Limit
	if spec.Offset > total {
		return nil, total, nil
	}
	if end > total {
		end = total
	}
	return items[spec.Offset:end], total, nil
}

func (r *memProposalRepo) ListIDs(ctx context.Context, eventID string, filters domain.SearchFilters, callerID string) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []*domain.Proposal
	for _, p := range r.store.proposals {
		if p.EventID != eventID {
			continue
		}
		if filters.Query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filters.Query)) {
			continue
		}
		if filters.Status != "" && p.DeliberationStatus != filters.Status {
			continue
		}
		if filters.FormatID != "" && !r.store.formats[p.ID][filters.FormatID] {
			continue
		}
		if filters.CategoryID != "" && !r.store.categories[p.ID][filters.CategoryID] {
			continue
		}
		if filters.TagID != "" && !r.store.tags[p.ID][filters.TagID] {
			continue
		}
		if filters.ReviewedByMe != "" {
			_, reviewed := r.store.reviews[p.ID][callerID]
			if filters.ReviewedByMe == domain.FilterReviewed && !reviewed {
				continue
			}
			if filters.ReviewedByMe == domain.FilterNotReviewed && reviewed {
				continue
			}
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	ids := make([]string, len(matched))
	for i, p := range matched {
		ids[i] = p.ID
	}
	return ids, nil
}

func (r *memProposalRepo) ClaimNotification(ctx context.Context, id string, outcome domain.DeliberationStatus, dispatch func(ctx context.Context, p *domain.Proposal) error) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.proposals[id]
	if !ok {
		return false, domain.ErrProposalNotFound
	}
	if !p.NeedsNotification(outcome) {
		return false, nil
	}

	// Dispatch against a copy; the flag only flips on success, like the
	// transactional implementation.
	copied := *p
	if err := dispatch(ctx, &copied); err != nil {
		return false, err
	}

	p.MarkNotified(outcome)
	return true, nil
}

// fakeNotifier records dispatched notifications and can be set to fail
type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (n *fakeNotifier) Notify(ctx context.Context, proposal *domain.Proposal, outcome domain.DeliberationStatus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, fmt.Sprintf("%s:%s", proposal.ID, outcome))
	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// fixture wires every service against one shared in-memory store
type fixture struct {
	store     *memStore
	notifier  *fakeNotifier
	reviews   *ReviewService
	lifecycle *LifecycleService
	search    *SearchService
	bulk      *BulkService
}

func newFixture() *fixture {
	store := newMemStore()
	events := &memEventRepo{store: store}
	members := &memMembershipRepo{store: store}
	reviewRepo := &memReviewRepo{store: store}
	proposals := &memProposalRepo{store: store}

	log := zap.NewNop()
	cache := NewCacheService(nil, log)
	notifier := &fakeNotifier{}

	return &fixture{
		store:     store,
		notifier:  notifier,
		reviews:   NewReviewService(reviewRepo, proposals, events, members, cache, log),
		lifecycle: NewLifecycleService(proposals, events, members, cache, log),
		search:    NewSearchService(proposals, events, members, cache, 20, log),
		bulk:      NewBulkService(proposals, events, members, notifier, cache, log),
	}
}

const (
	testTeamID  = "team-1"
	testEventID = "event-1"
	testSlug    = "gophercon"
)

func (f *fixture) seedEvent() *domain.Event {
	return f.store.addEvent(domain.Event{
		ID:                       testEventID,
		TeamID:                   testTeamID,
		Slug:                     testSlug,
		Name:                     "GopherCon",
		Type:                     domain.EventTypeMeetup,
		CFPManuallyOpen:          true,
		DisplayProposalsSpeakers: true,
		DisplayProposalsReviews:  true,
	})
}

func organizer() domain.Caller { return domain.Caller{UserID: "org-1", Name: "Olivia"} }
func reviewer() domain.Caller  { return domain.Caller{UserID: "rev-1", Name: "Rae"} }
func speaker() domain.Caller   { return domain.Caller{UserID: "spk-1", Name: "Sam"} }

func (f *fixture) seedTeam() {
	f.store.addRole(testTeamID, organizer().UserID, domain.RoleOwner)
	f.store.addRole(testTeamID, reviewer().UserID, domain.RoleReviewer)
}
