package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/suite"

	"playground-api/internal/geo"
	"playground-api/internal/migrate"
)

// StoreTestSuite 需要一个可写的 PostgreSQL，通过 PG_TEST_DSN 提供
type StoreTestSuite struct {
	suite.Suite
	dsn   string
	store *Store
}

func NewStoreTestSuite(dsn string) *StoreTestSuite {
	return &StoreTestSuite{dsn: dsn}
}

func (s *StoreTestSuite) SetupSuite() {
	st, err := Open(s.dsn)
	if err != nil {
		s.T().Fatalf("open postgres with error: %s", err)
	}
	if err := migrate.EnsureSchema(st.DB()); err != nil {
		s.T().Fatalf("ensure schema with error: %s", err)
	}
	s.store = st
}

func (s *StoreTestSuite) SetupTest() {
	ctx := context.Background()
	_, err := s.store.DB().ExecContext(ctx, "TRUNCATE _district_aggregates, _ingest_runs")
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TearDownSuite() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func feature(name string) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{25.47, 65.01})
	f.Properties["tags"] = map[string]interface{}{"name": name, "leisure": "playground"}
	return f
}

func (s *StoreTestSuite) TestPublishAndGet() {
	ctx := context.Background()
	entry := geo.AggregateEntry{Count: 2, Features: []*geojson.Feature{feature("A"), feature("B")}}
	s.Require().NoError(s.store.Publish(ctx, 1, "Keskusta", entry, []string{"A", "B"}))

	p, err := s.store.Get(ctx, "Keskusta")
	s.Require().NoError(err)
	s.Require().NotNil(p)
	s.Equal(2, p.Count)
	s.Equal([]string{"A", "B"}, p.Names)
	s.Equal(uint64(1), p.Revision)
	s.Len(p.Features, 2)

	entry = geo.AggregateEntry{Count: 1, Features: []*geojson.Feature{feature("C")}}
	s.Require().NoError(s.store.Publish(ctx, 2, "Keskusta", entry, []string{"C"}))
	p, err = s.store.Get(ctx, "Keskusta")
	s.Require().NoError(err)
	s.Equal(1, p.Count)
	s.Equal(uint64(2), p.Revision)
}

func (s *StoreTestSuite) TestGetMissing() {
	p, err := s.store.Get(context.Background(), "Nowhere")
	s.NoError(err)
	s.Nil(p)
}

func (s *StoreTestSuite) TestDropAndList() {
	ctx := context.Background()
	empty := geo.AggregateEntry{Features: []*geojson.Feature{}}
	for _, k := range []string{"C", "A", "B"} {
		s.Require().NoError(s.store.Publish(ctx, 1, k, empty, nil))
	}
	s.Require().NoError(s.store.Drop(ctx, []string{"B"}))
	s.Require().NoError(s.store.Drop(ctx, nil))

	list, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("A", list[0].Key)
	s.Equal("C", list[1].Key)
	s.Empty(list[0].Names)
}

func (s *StoreTestSuite) TestRecordRun() {
	ctx := context.Background()
	id, err := s.store.RecordRun(ctx, Run{Source: "file", Revision: 3, Districts: 2, Err: errors.New("boom"), StartedAt: time.Now()})
	s.Require().NoError(err)

	var msg string
	s.Require().NoError(s.store.DB().QueryRowContext(ctx, "SELECT error FROM _ingest_runs WHERE id=$1", id).Scan(&msg))
	s.Equal("boom", msg)
}

func TestStoreTestSuite(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	suite.Run(t, NewStoreTestSuite(dsn))
}
