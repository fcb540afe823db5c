// Package firestore keeps parking events and the live count in Cloud
// Firestore: an append-only "events" collection plus the live_counts/summary
// document.
package firestore

import (
	"context"
	"fmt"
	"os"
	"time"

	fsapi "cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/live"
)

const (
	eventsCollection = "events"

	// EmulatorHostEnv is read by the client library itself; we only check it
	// to decide whether credentials are required.
	EmulatorHostEnv = "FIRESTORE_EMULATOR_HOST"
	emulatorProject = "demo-smart-parking"
)

var ErrNoCredentials = fmt.Errorf("firestore credentials not found: %w", domain.ErrStoreUnavailable)

type Options struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON string
}

type Store struct {
	client *fsapi.Client
}

// Open builds a client from serialized credentials, a credentials file, or
// the emulator, in that order of preference.
func Open(ctx context.Context, opts Options) (*Store, error) {
	projectID, clientOpts, err := clientConfig(opts)
	if err != nil {
		return nil, err
	}
	client, err := fsapi.NewClient(ctx, projectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func clientConfig(opts Options) (string, []option.ClientOption, error) {
	projectID := opts.ProjectID

	if opts.CredentialsJSON != "" {
		if projectID == "" {
			projectID = fsapi.DetectProjectID
		}
		return projectID, []option.ClientOption{option.WithCredentialsJSON([]byte(opts.CredentialsJSON))}, nil
	}

	if opts.CredentialsFile != "" {
		if _, err := os.Stat(opts.CredentialsFile); err == nil {
			if projectID == "" {
				projectID = fsapi.DetectProjectID
			}
			return projectID, []option.ClientOption{option.WithCredentialsFile(opts.CredentialsFile)}, nil
		}
	}

	if os.Getenv(EmulatorHostEnv) != "" {
		if projectID == "" {
			projectID = emulatorProject
		}
		return projectID, nil, nil
	}

	return "", nil, ErrNoCredentials
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) summaryRef() *fsapi.DocumentRef {
	return s.client.Collection(domain.SummaryCollection).Doc(domain.SummaryDocumentID)
}

type eventDoc struct {
	Type         string    `firestore:"type"`
	LicensePlate string    `firestore:"licensePlate"`
	ZoneID       string    `firestore:"zoneId"`
	Timestamp    time.Time `firestore:"timestamp"`
}

type summaryDoc struct {
	Occupied      int64     `firestore:"occupied"`
	TotalCapacity *int64    `firestore:"totalCapacity"`
	LastUpdated   time.Time `firestore:"lastUpdated"`
}

func (s *Store) AppendEvent(ctx context.Context, event domain.Event) error {
	if !event.Type.Valid() {
		return domain.ErrInvalidEventType
	}
	doc := eventDoc{
		Type:         string(event.Type),
		LicensePlate: event.LicensePlate,
		ZoneID:       event.ZoneID,
		Timestamp:    event.Timestamp,
	}
	if _, err := s.client.Collection(eventsCollection).Doc(event.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *Store) RecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	docs, err := s.client.Collection(eventsCollection).
		OrderBy("timestamp", fsapi.Desc).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]domain.Event, 0, len(docs))
	for _, snap := range docs {
		var doc eventDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", snap.Ref.ID, err)
		}
		events = append(events, domain.Event{
			ID:           snap.Ref.ID,
			Type:         domain.EventType(doc.Type),
			LicensePlate: doc.LicensePlate,
			ZoneID:       doc.ZoneID,
			Timestamp:    doc.Timestamp.UTC(),
		})
	}
	return events, nil
}

func (s *Store) IncrementOccupied(ctx context.Context, at time.Time) error {
	_, err := s.summaryRef().Set(ctx, map[string]any{
		"occupied":    fsapi.Increment(1),
		"lastUpdated": at,
	}, fsapi.MergeAll)
	if err != nil {
		return fmt.Errorf("increment occupied: %w", err)
	}
	return nil
}

// DecrementOccupied runs the floored decrement in a transaction; Firestore
// retries it when a concurrent exit commits first.
func (s *Store) DecrementOccupied(ctx context.Context, at time.Time) (int, error) {
	ref := s.summaryRef()
	var occupied int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *fsapi.Transaction) error {
		current := 0
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			sum, err := decodeSummary(snap)
			if err != nil {
				return err
			}
			current = sum.Occupied
		}

		occupied = domain.DecrementFloor(current)
		return tx.Set(ref, map[string]any{
			"occupied":    occupied,
			"lastUpdated": at,
		}, fsapi.MergeAll)
	})
	if err != nil {
		return 0, fmt.Errorf("decrement occupied: %w", err)
	}
	return occupied, nil
}

func (s *Store) ResetOccupied(ctx context.Context, at time.Time) error {
	_, err := s.summaryRef().Set(ctx, map[string]any{
		"occupied":    0,
		"lastUpdated": at,
	}, fsapi.MergeAll)
	if err != nil {
		return fmt.Errorf("reset occupied: %w", err)
	}
	return nil
}

func (s *Store) GetSummary(ctx context.Context) (domain.OccupancySummary, error) {
	snap, err := s.summaryRef().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.OccupancySummary{}, domain.ErrSummaryNotFound
		}
		return domain.OccupancySummary{}, fmt.Errorf("get summary: %w", err)
	}
	return decodeSummary(snap)
}

func decodeSummary(snap *fsapi.DocumentSnapshot) (domain.OccupancySummary, error) {
	var doc summaryDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.OccupancySummary{}, fmt.Errorf("decode summary: %w", err)
	}
	sum := domain.OccupancySummary{
		Occupied:    int(doc.Occupied),
		LastUpdated: doc.LastUpdated.UTC(),
	}
	if doc.TotalCapacity != nil {
		sum.TotalCapacity = int(*doc.TotalCapacity)
	}
	return sum, nil
}

// WatchSummary attaches a realtime listener to the summary document.
func (s *Store) WatchSummary(ctx context.Context) (live.SummaryStream, error) {
	return &summaryStream{it: s.summaryRef().Snapshots(ctx)}, nil
}

type summaryStream struct {
	it *fsapi.DocumentSnapshotIterator
}

func (s *summaryStream) Next() (domain.SummarySnapshot, error) {
	snap, err := s.it.Next()
	if err != nil {
		return domain.SummarySnapshot{}, fmt.Errorf("summary listener: %w", err)
	}
	if !snap.Exists() {
		return domain.SummarySnapshot{}, nil
	}
	sum, err := decodeSummary(snap)
	if err != nil {
		return domain.SummarySnapshot{}, err
	}
	return domain.SummarySnapshot{Summary: sum, Exists: true}, nil
}

func (s *summaryStream) Stop() {
	s.it.Stop()
}
