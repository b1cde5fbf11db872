package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	table, err := strategy.Load()
	if err != nil {
		t.Fatalf("strategy.Load(): %v", err)
	}
	return httptest.NewServer(New(table).Router())
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestStartSessionThenStatus(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/sessions", `{"mode":"AUTO","bankroll":1000}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start_session status = %d, want 201", resp.StatusCode)
	}
	var view sessionViewDTO
	decodeJSON(t, resp, &view)
	if view.SessionID == "" {
		t.Fatal("expected a session_id")
	}
	if view.Mode != "AUTO" {
		t.Errorf("mode = %q, want AUTO", view.Mode)
	}

	statusResp, err := http.Get(srv.URL + "/sessions/" + view.SessionID)
	if err != nil {
		t.Fatalf("GET session_status: %v", err)
	}
	if statusResp.StatusCode != http.StatusOK {
		t.Fatalf("session_status = %d, want 200", statusResp.StatusCode)
	}
}

func TestStartSessionRejectsBadMode(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/sessions", `{"mode":"WEIRD","bankroll":1000}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad mode status = %d, want 400", resp.StatusCode)
	}
	var errBody errorResponseDTO
	decodeJSON(t, resp, &errBody)
	if errBody.Code != "BAD_INPUT" {
		t.Errorf("code = %q, want BAD_INPUT", errBody.Code)
	}
}

func TestDealThenActionFlow(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	startResp := postJSON(t, srv.URL+"/sessions", `{"mode":"AUTO","bankroll":10000}`)
	var view sessionViewDTO
	decodeJSON(t, startResp, &view)

	dealResp := postJSON(t, srv.URL+"/sessions/"+view.SessionID+"/deal", "")
	if dealResp.StatusCode != http.StatusOK {
		t.Fatalf("deal status = %d, want 200", dealResp.StatusCode)
	}
	var deal dealResultDTO
	decodeJSON(t, dealResp, &deal)
	if len(deal.PlayerCards) != 2 {
		t.Errorf("expected 2 player cards, got %d", len(deal.PlayerCards))
	}

	actResp := postJSON(t, srv.URL+"/sessions/"+view.SessionID+"/action", `{"action":"stand"}`)
	if actResp.StatusCode != http.StatusOK {
		t.Fatalf("action status = %d, want 200", actResp.StatusCode)
	}
	var act actionResultDTO
	decodeJSON(t, actResp, &act)
	if act.Outcome == nil {
		t.Error("expected a settled outcome after standing")
	}
}

func TestQueryDecisionShadowMode(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	startResp := postJSON(t, srv.URL+"/sessions", `{"mode":"MANUAL","bankroll":10000}`)
	var view sessionViewDTO
	decodeJSON(t, startResp, &view)

	body := `{"player_cards":["Th","6d"],"dealer_up":"7"}`
	decResp := postJSON(t, srv.URL+"/sessions/"+view.SessionID+"/query_decision", body)
	if decResp.StatusCode != http.StatusOK {
		t.Fatalf("query_decision status = %d, want 200", decResp.StatusCode)
	}
	var dec queryDecisionResultDTO
	decodeJSON(t, decResp, &dec)
	if dec.RecommendedAction != "hit" {
		t.Errorf("HARD16 vs 7 = %q, want hit", dec.RecommendedAction)
	}
}

func TestShuffleResetsCountToZero(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	startResp := postJSON(t, srv.URL+"/sessions", `{"mode":"MANUAL","bankroll":1000}`)
	var view sessionViewDTO
	decodeJSON(t, startResp, &view)

	_ = postJSON(t, srv.URL+"/sessions/"+view.SessionID+"/observe", `{"cards":["5s","6h"]}`)

	shuffleResp := postJSON(t, srv.URL+"/sessions/"+view.SessionID+"/shuffle", "")
	if shuffleResp.StatusCode != http.StatusOK {
		t.Fatalf("shuffle status = %d, want 200", shuffleResp.StatusCode)
	}
	var body struct {
		CountSnapshot countSnapshotDTO `json:"count_snapshot"`
	}
	decodeJSON(t, shuffleResp, &body)
	if body.CountSnapshot.RunningCount != 0 || body.CountSnapshot.CardsDealt != 0 {
		t.Errorf("shuffle snapshot = %+v, want zeroed count", body.CountSnapshot)
	}
}

func TestObserveUpdatesRunningCount(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	startResp := postJSON(t, srv.URL+"/sessions", `{"mode":"MANUAL","bankroll":1000}`)
	var view sessionViewDTO
	decodeJSON(t, startResp, &view)

	obsResp := postJSON(t, srv.URL+"/sessions/"+view.SessionID+"/observe", `{"cards":["5s","6h"]}`)
	if obsResp.StatusCode != http.StatusOK {
		t.Fatalf("observe status = %d, want 200", obsResp.StatusCode)
	}
	var obs observeResultDTO
	decodeJSON(t, obsResp, &obs)
	if obs.CountSnapshot.RunningCount != 2 {
		t.Errorf("running count = %d, want 2", obs.CountSnapshot.RunningCount)
	}
}

func TestQueryBetReflectsTableMinWithNoCountEdge(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	startResp := postJSON(t, srv.URL+"/sessions", `{"mode":"MANUAL","bankroll":1000}`)
	var view sessionViewDTO
	decodeJSON(t, startResp, &view)

	betResp, err := http.Get(srv.URL + "/sessions/" + view.SessionID + "/query_bet")
	if err != nil {
		t.Fatalf("GET query_bet: %v", err)
	}
	if betResp.StatusCode != http.StatusOK {
		t.Fatalf("query_bet status = %d, want 200", betResp.StatusCode)
	}
	var body struct {
		RecommendedBet float64 `json:"recommended_bet"`
	}
	decodeJSON(t, betResp, &body)
	if want := strategy.DefaultGameRules().TableMin; body.RecommendedBet != want {
		t.Errorf("recommended_bet = %v, want table_min %v at a fresh shoe", body.RecommendedBet, want)
	}
}

func TestStartSessionOmittedBoolRulesKeepDocumentedDefaults(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	// Supplying a rules object at all used to silently zero out every
	// omitted bool field; num_decks is the only override here, so
	// surrender_allowed must still default to true.
	startResp := postJSON(t, srv.URL+"/sessions", `{"mode":"MANUAL","bankroll":10000,"rules":{"num_decks":8}}`)
	if startResp.StatusCode != http.StatusCreated {
		t.Fatalf("start_session status = %d, want 201", startResp.StatusCode)
	}
	var view sessionViewDTO
	decodeJSON(t, startResp, &view)

	body := `{"player_cards":["9h","6d"],"dealer_up":"T"}`
	decResp := postJSON(t, srv.URL+"/sessions/"+view.SessionID+"/query_decision", body)
	if decResp.StatusCode != http.StatusOK {
		t.Fatalf("query_decision status = %d, want 200", decResp.StatusCode)
	}
	var dec queryDecisionResultDTO
	decodeJSON(t, decResp, &dec)
	if dec.RecommendedAction != "surrender" {
		t.Errorf("HARD15 vs T with surrender_allowed omitted = %q, want surrender (documented default true)", dec.RecommendedAction)
	}
}

func TestEndSessionThenStatusIsGone(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	startResp := postJSON(t, srv.URL+"/sessions", `{"mode":"AUTO","bankroll":1000}`)
	var view sessionViewDTO
	decodeJSON(t, startResp, &view)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/"+view.SessionID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("end_session: %v", err)
	}
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("end_session status = %d, want 200", delResp.StatusCode)
	}

	statusResp, err := http.Get(srv.URL + "/sessions/" + view.SessionID)
	if err != nil {
		t.Fatalf("GET after end: %v", err)
	}
	if statusResp.StatusCode != http.StatusNotFound {
		t.Errorf("status after end = %d, want 404 (SESSION_GONE)", statusResp.StatusCode)
	}
}
