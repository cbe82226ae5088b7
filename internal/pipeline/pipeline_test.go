package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal_sync/internal/partners/client"
	"proposal_sync/internal/proposals"
	"proposal_sync/internal/staging"
	"proposal_sync/platform/logger"
)

const todayProposal = `[{"proposta": {"proposta_id": "A-1"}, "datas": {"cadastro": "2024-05-20"}}]`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func day(t *testing.T) proposals.Window {
	t.Helper()
	w, err := proposals.ParseWindow("2024-05-20", "2024-05-20")
	require.NoError(t, err)
	return w
}

func newClient(sources ...client.Source) *client.Client {
	return client.NewWithSources(sources, 5*time.Second, 0, 1, logger.Discard())
}

type archiveStub struct {
	stored map[string][]byte
	err    error
}

func (a *archiveStub) Store(_ context.Context, partnerID string, _ proposals.Window, body []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	if a.stored == nil {
		a.stored = map[string][]byte{}
	}
	a.stored[partnerID] = body
	return partnerID + "/key.json", nil
}

func TestFailingPartnerDoesNotBlockOthers(t *testing.T) {
	a := serve(t, http.StatusOK, todayProposal)
	b := serve(t, http.StatusInternalServerError, `boom`)

	target := staging.NewMemoryTarget()
	p := New(newClient(
		client.Source{ID: "a", URL: a.URL, Username: "u", Password: "p"},
		client.Source{ID: "b", URL: b.URL, Username: "u", Password: "p"},
	), staging.NewMerger(target, 0, logger.Discard()), logger.Discard())

	report, err := p.Run(context.Background(), day(t))
	require.NoError(t, err)

	require.Len(t, report.Partners, 2)
	assert.Equal(t, 200, report.Partners[0].Status)
	assert.Empty(t, report.Partners[0].Error)
	assert.Equal(t, 500, report.Partners[1].Status)
	assert.NotEmpty(t, report.Partners[1].Error)

	rows := target.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "a", *rows[0].Get(proposals.ColPartner))
	assert.Equal(t, "A-1", *rows[0].Get("proposta_id"))
	assert.EqualValues(t, 1, report.Merge.Inserted)
}

func TestDuplicateAcrossPartnersLandsOnce(t *testing.T) {
	a := serve(t, http.StatusOK, todayProposal)
	b := serve(t, http.StatusOK, `{"x": {"proposta": {"proposta_id": "a-1 "}, "datas": {"cadastro": "2024-05-20"}}}`)

	target := staging.NewMemoryTarget()
	p := New(newClient(
		client.Source{ID: "a", URL: a.URL, Username: "u", Password: "p"},
		client.Source{ID: "b", URL: b.URL, Username: "u", Password: "p"},
	), staging.NewMerger(target, 0, logger.Discard()), logger.Discard())

	report, err := p.Run(context.Background(), day(t))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Records)
	assert.EqualValues(t, 1, report.Merge.Duplicates)
	assert.Len(t, target.Rows(), 1)

	_, err = p.Run(context.Background(), day(t))
	require.NoError(t, err)
	assert.Len(t, target.Rows(), 1, "rerunning a window changes nothing")
}

func TestArchiveStoresOnlySuccessfulBodies(t *testing.T) {
	a := serve(t, http.StatusOK, todayProposal)
	b := serve(t, http.StatusBadGateway, ``)

	arch := &archiveStub{}
	p := New(newClient(
		client.Source{ID: "a", URL: a.URL, Username: "u", Password: "p"},
		client.Source{ID: "b", URL: b.URL, Username: "u", Password: "p"},
	), staging.NewMerger(staging.NewMemoryTarget(), 0, logger.Discard()), logger.Discard(), WithArchiver(arch))

	report, err := p.Run(context.Background(), day(t))
	require.NoError(t, err)
	assert.Equal(t, todayProposal, string(arch.stored["a"]))
	assert.NotContains(t, arch.stored, "b")
	assert.Equal(t, "a/key.json", report.Partners[0].Archive)
}

func TestArchiveFailureDoesNotBlockMerge(t *testing.T) {
	a := serve(t, http.StatusOK, todayProposal)
	target := staging.NewMemoryTarget()
	p := New(newClient(client.Source{ID: "a", URL: a.URL, Username: "u", Password: "p"}),
		staging.NewMerger(target, 0, logger.Discard()), logger.Discard(),
		WithArchiver(&archiveStub{err: errors.New("bucket gone")}))

	_, err := p.Run(context.Background(), day(t))
	require.NoError(t, err)
	assert.Len(t, target.Rows(), 1)
}

type failingMerger struct{}

func (failingMerger) MergeWindow(_ context.Context, w proposals.Window, _ []proposals.Row) (staging.Result, error) {
	return staging.Result{Window: w}, errors.New("merge failed")
}

func TestMergeErrorIsReturned(t *testing.T) {
	a := serve(t, http.StatusOK, todayProposal)
	p := New(newClient(client.Source{ID: "a", URL: a.URL, Username: "u", Password: "p"}), failingMerger{}, logger.Discard())

	report, err := p.Run(context.Background(), day(t))
	require.Error(t, err)
	assert.Equal(t, 1, report.Records)
}
