package draw

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/notify"
)

// In-memory fakes mirroring the persistence contracts, including the
// ledger's uniqueness behavior.

type fakeParticipantStore struct {
	mu           sync.Mutex
	participants map[uuid.UUID][]domain.Participant
	listErr      error
}

func newFakeParticipantStore() *fakeParticipantStore {
	return &fakeParticipantStore{participants: make(map[uuid.UUID][]domain.Participant)}
}

func (f *fakeParticipantStore) CreateParticipant(_ context.Context, p *domain.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.participants[p.EventID] {
		if existing.ContactID == p.ContactID {
			return domain.ErrAlreadyRegistered
		}
		if existing.ShortID == p.ShortID {
			return domain.ErrShortIDTaken
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.participants[p.EventID] = append(f.participants[p.EventID], *p)
	return nil
}

func (f *fakeParticipantStore) ListParticipants(_ context.Context, eventID uuid.UUID) ([]domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Participant(nil), f.participants[eventID]...), nil
}

func (f *fakeParticipantStore) GetParticipantByContact(_ context.Context, eventID, contactID uuid.UUID) (*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants[eventID] {
		if p.ContactID == contactID {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrParticipantNotFound
}

func (f *fakeParticipantStore) GetParticipantByShortID(_ context.Context, shortID int) (*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ps := range f.participants {
		for _, p := range ps {
			if p.ShortID == shortID {
				cp := p
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrParticipantNotFound
}

type winnerKey struct {
	eventID uuid.UUID
	shortID int
}

type fakeWinnerLedger struct {
	mu      sync.Mutex
	records map[winnerKey]domain.WinnerRecord
}

func newFakeWinnerLedger() *fakeWinnerLedger {
	return &fakeWinnerLedger{records: make(map[winnerKey]domain.WinnerRecord)}
}

func (f *fakeWinnerLedger) RecordWinners(_ context.Context, eventID uuid.UUID, participants []domain.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range participants {
		key := winnerKey{eventID, p.ShortID}
		if _, exists := f.records[key]; exists {
			continue // duplicate insert is skipped, same as the real ledger
		}
		f.records[key] = domain.WinnerRecord{
			EventID:   eventID,
			ShortID:   p.ShortID,
			CreatedAt: time.Now(),
		}
	}
	return nil
}

func (f *fakeWinnerLedger) ListWinners(_ context.Context, eventID uuid.UUID) ([]domain.WinnerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []domain.WinnerRecord
	for key, rec := range f.records {
		if key.eventID == eventID {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (f *fakeWinnerLedger) GetWinner(_ context.Context, eventID uuid.UUID, shortID int) (*domain.WinnerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[winnerKey{eventID, shortID}]; ok {
		return &rec, nil
	}
	return nil, domain.ErrWinnerNotFound
}

func (f *fakeWinnerLedger) MarkClaimed(_ context.Context, eventID uuid.UUID, shortID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := winnerKey{eventID, shortID}
	rec, ok := f.records[key]
	if !ok {
		return domain.ErrWinnerNotFound
	}
	if rec.Claimed {
		return domain.ErrPrizeAlreadyClaimed
	}
	rec.Claimed = true
	f.records[key] = rec
	return nil
}

type fakeConfigStore struct {
	mu      sync.Mutex
	configs map[uuid.UUID]*domain.DrawConfig
}

func newFakeConfigStore() *fakeConfigStore {
	return &fakeConfigStore{configs: make(map[uuid.UUID]*domain.DrawConfig)}
}

func (f *fakeConfigStore) GetDrawConfig(_ context.Context, eventID uuid.UUID) (*domain.DrawConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[eventID]
	if !ok {
		return nil, domain.ErrDrawConfigMissing
	}
	cp := *cfg
	return &cp, nil
}

func (f *fakeConfigStore) UpsertDrawConfig(_ context.Context, eventID uuid.UUID, patch domain.DrawConfigPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[eventID]
	if !ok {
		cfg = &domain.DrawConfig{EventID: eventID, WinnerNumber: 1, DrawInterval: 1, DrawDuration: 1}
		f.configs[eventID] = cfg
	}
	if patch.IntroMessage != nil {
		cfg.IntroMessage = *patch.IntroMessage
	}
	if patch.WinnerNumber != nil {
		cfg.WinnerNumber = *patch.WinnerNumber
	}
	if patch.DrawInterval != nil {
		cfg.DrawInterval = *patch.DrawInterval
	}
	if patch.DrawDuration != nil {
		cfg.DrawDuration = *patch.DrawDuration
	}
	if patch.WinnersMessage != nil {
		cfg.WinnersMessage = *patch.WinnersMessage
	}
	cfg.Completed = false
	return nil
}

func (f *fakeConfigStore) MarkDrawCompleted(_ context.Context, eventID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[eventID]
	if !ok {
		return domain.ErrDrawConfigMissing
	}
	cfg.Completed = true
	return nil
}

// fakeContactStore resolves participant ids to deterministic contacts
type fakeContactStore struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]domain.Contact // keyed by participant id
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{contacts: make(map[uuid.UUID]domain.Contact)}
}

func (f *fakeContactStore) link(participantID uuid.UUID, contact domain.Contact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts[participantID] = contact
}

func (f *fakeContactStore) EnsureContact(_ context.Context, platform, platformID, name string) (*domain.Contact, error) {
	return &domain.Contact{ID: uuid.New(), Platform: platform, PlatformID: platformID, Name: name}, nil
}

func (f *fakeContactStore) GetContact(_ context.Context, id uuid.UUID) (*domain.Contact, error) {
	return nil, domain.ErrContactNotFound
}

func (f *fakeContactStore) GetContactByPlatformID(_ context.Context, _, _ string) (*domain.Contact, error) {
	return nil, domain.ErrContactNotFound
}

func (f *fakeContactStore) ListContacts(_ context.Context) ([]domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var contacts []domain.Contact
	for _, c := range f.contacts {
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func (f *fakeContactStore) ResolveContacts(_ context.Context, participantIDs []uuid.UUID) ([]domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var contacts []domain.Contact
	for _, id := range participantIDs {
		if c, ok := f.contacts[id]; ok {
			contacts = append(contacts, c)
		}
	}
	return contacts, nil
}

// fakeRunner captures scheduled jobs instead of firing timers, letting
// tests execute rounds synchronously.
type scheduledCall struct {
	At      time.Time
	Kind    string
	Payload any
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []scheduledCall
	err   error
}

func (f *fakeRunner) ScheduleAt(_ context.Context, at time.Time, kind string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, scheduledCall{At: at, Kind: kind, Payload: payload})
	return nil
}

func (f *fakeRunner) ScheduleNow(ctx context.Context, kind string, payload any) error {
	return f.ScheduleAt(ctx, time.Now(), kind, payload)
}

func (f *fakeRunner) scheduled() []scheduledCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scheduledCall(nil), f.calls...)
}

// recordingNotifier counts deliveries and can fail specific platform ids
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	sentTo   []string
	failFor  map[string]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failFor: make(map[string]bool)}
}

func (n *recordingNotifier) Dispatch(_ context.Context, contacts []domain.Contact, message, _ string) []notify.Failure {
	n.mu.Lock()
	defer n.mu.Unlock()
	var failures []notify.Failure
	for _, c := range contacts {
		if n.failFor[c.PlatformID] {
			failures = append(failures, notify.Failure{Contact: c, Err: context.DeadlineExceeded})
			continue
		}
		n.messages = append(n.messages, message)
		n.sentTo = append(n.sentTo, c.PlatformID)
	}
	return failures
}

func (n *recordingNotifier) deliveredTo() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sentTo...)
}
