package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"spyfall/internal/ai"
	"spyfall/internal/config"
	"spyfall/internal/game"
	"spyfall/internal/metrics"
)

const generateTimeout = 45 * time.Second

type ConnCtx struct {
	Code  string
	Token string
}

type Server struct {
	Manager  *game.Manager
	provider ai.Provider
	config   config.Config

	mu       sync.Mutex
	members  map[string]map[string]socketio.Conn // sessionCode -> socketID -> Conn
	exported map[string]bool                     // sessionCode -> results written
}

func New(m *game.Manager, cfg config.Config) *Server {
	return &Server{
		Manager:  m,
		config:   cfg,
		members:  make(map[string]map[string]socketio.Conn),
		exported: make(map[string]bool),
	}
}

func (srv *Server) SetProvider(p ai.Provider) { srv.provider = p }

// Mount attaches the Socket.IO server with all game events to the given
// Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		metrics.ActiveConnections.Inc()
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// game:create — start (or restart) a game; the caller is the human.
	io.OnEvent("/", "game:create", func(s socketio.Conn, payload struct {
		PlayerName   string `json:"playerName"`
		Provider     string `json:"provider"`
		Model        string `json:"model"`
		SpyCount     int    `json:"spyCount"`
		RoundLimit   int    `json:"roundLimit"`
		ActionWindow int    `json:"actionWindow"`
		Untimed      bool   `json:"untimed"`
	}) map[string]any {
		cfg := game.DefaultSessionConfig(payload.PlayerName)
		cfg.Provider = payload.Provider
		cfg.Model = payload.Model
		cfg.SpyCount = srv.config.SpyCount
		cfg.RoundLimit = srv.config.RoundLimit
		cfg.ActionWindow = srv.config.ActionWindow
		cfg.Timed = srv.config.TimedRounds
		if payload.SpyCount > 0 {
			cfg.SpyCount = payload.SpyCount
		}
		if payload.RoundLimit > 0 {
			cfg.RoundLimit = payload.RoundLimit
		}
		if payload.ActionWindow > 0 {
			cfg.ActionWindow = payload.ActionWindow
		}
		if payload.Untimed {
			cfg.Timed = false
		}

		sess, err := srv.Manager.CreateSession(cfg, srv.provider)
		if err != nil {
			return srv.err(s, "bad_config", err.Error(), false)
		}
		metrics.SessionsStarted.Inc()
		s.SetContext(&ConnCtx{Code: sess.Code, Token: sess.HumanToken})
		s.Join(sess.Code)
		srv.addMember(sess.Code, s)
		log.Info().Str("sid", s.ID()).Str("code", sess.Code).Msg("game:create")
		srv.emitStateTo(sess.Code)
		return map[string]any{"sessionCode": sess.Code, "playerToken": sess.HumanToken}
	})

	// game:resume — reconnection with the token from game:create.
	io.OnEvent("/", "game:resume", func(s socketio.Conn, payload struct {
		SessionCode string `json:"sessionCode"`
		Token       string `json:"token"`
	}) map[string]any {
		sess, err := srv.Manager.Get(payload.SessionCode)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found", false)
		}
		if payload.Token != sess.HumanToken {
			return srv.err(s, "unauthorized", "Invalid player token", false)
		}
		s.SetContext(&ConnCtx{Code: payload.SessionCode, Token: payload.Token})
		s.Join(payload.SessionCode)
		srv.addMember(payload.SessionCode, s)
		log.Info().Str("sid", s.ID()).Str("code", payload.SessionCode).Msg("game:resume")
		s.Emit("game:state", sess.Snapshot())
		return map[string]any{"ok": true}
	})

	// game:role — the caller's own card (role, faction, location if insider).
	io.OnEvent("/", "game:role", func(s socketio.Conn) map[string]any {
		sess, ok := srv.session(s)
		if !ok {
			return srv.err(s, "session_not_found", "Session not found", false)
		}
		human := sess.Config.PlayerNames[sess.Config.HumanIndex]
		card, location, err := sess.RoleFor(human)
		if err != nil {
			return srv.err(s, "bad_request", err.Error(), false)
		}
		return map[string]any{"role": card.Role, "faction": card.Faction, "location": location}
	})

	// game:advance — let the current automated actor proceed.
	io.OnEvent("/", "game:advance", func(s socketio.Conn) map[string]any {
		sess, ok := srv.session(s)
		if !ok {
			return srv.err(s, "session_not_found", "Session not found", false)
		}
		go func(code string) {
			ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
			defer cancel()

			wasAsking := sess.GetPhase() == game.PhaseAwaitingQuestion
			if err := sess.AdvanceAutomated(ctx); err != nil {
				if errors.Is(err, game.ErrGeneration) {
					metrics.GenerationFailures.Inc()
					srv.emitError(code, "generation_failed", err.Error(), true)
					return
				}
				srv.emitError(code, "bad_request", err.Error(), false)
				return
			}
			if wasAsking {
				metrics.QuestionsGenerated.Inc()
			} else {
				metrics.AnswersGenerated.Inc()
			}
			srv.afterEvent(code)
		}(srv.code(s))
		return map[string]any{"ok": true}
	})

	// game:ask — the human's question.
	io.OnEvent("/", "game:ask", func(s socketio.Conn, payload struct {
		Target string `json:"target"`
		Text   string `json:"text"`
	}) map[string]any {
		sess, ok := srv.session(s)
		if !ok {
			return srv.err(s, "session_not_found", "Session not found", false)
		}
		if err := sess.SubmitQuestion(payload.Target, payload.Text); err != nil {
			return srv.err(s, "bad_request", err.Error(), false)
		}
		log.Info().Str("code", sess.Code).Str("target", payload.Target).Msg("game:ask")
		srv.afterEvent(sess.Code)
		return map[string]any{"ok": true}
	})

	// game:answer — the human's answer to the open question.
	io.OnEvent("/", "game:answer", func(s socketio.Conn, payload struct {
		Text string `json:"text"`
	}) map[string]any {
		sess, ok := srv.session(s)
		if !ok {
			return srv.err(s, "session_not_found", "Session not found", false)
		}
		if err := sess.SubmitAnswer(payload.Text); err != nil {
			return srv.err(s, "bad_request", err.Error(), false)
		}
		log.Info().Str("code", sess.Code).Msg("game:answer")
		srv.afterEvent(sess.Code)
		return map[string]any{"ok": true}
	})

	// game:action — a terminating action (accuse_spy | guess_location).
	io.OnEvent("/", "game:action", func(s socketio.Conn, payload struct {
		Kind    string `json:"kind"`
		Payload string `json:"payload"`
	}) map[string]any {
		sess, ok := srv.session(s)
		if !ok {
			return srv.err(s, "session_not_found", "Session not found", false)
		}
		err := sess.SubmitAction(game.ActionKind(payload.Kind), payload.Payload)
		if errors.Is(err, game.ErrIllegalAction) {
			// logged in the transcript; surface as a warning, not a failure
			srv.emitStateTo(sess.Code)
			return srv.err(s, "illegal_action", err.Error(), false)
		}
		if err != nil {
			return srv.err(s, "bad_request", err.Error(), false)
		}
		log.Info().Str("code", sess.Code).Str("kind", payload.Kind).Msg("game:action")
		srv.afterEvent(sess.Code)
		return map[string]any{"ok": true}
	})

	// game:window — the action-window timeout event.
	io.OnEvent("/", "game:window", func(s socketio.Conn) map[string]any {
		sess, ok := srv.session(s)
		if !ok {
			return srv.err(s, "session_not_found", "Session not found", false)
		}
		if err := sess.WindowElapsed(); err != nil {
			return srv.err(s, "bad_request", err.Error(), false)
		}
		srv.afterEvent(sess.Code)
		return map[string]any{"ok": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Code != "" {
			srv.removeMember(ctx.Code, s)
		}
		metrics.ActiveConnections.Dec()
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// afterEvent pushes the new state and runs the bookkeeping a state
// change can require: scheduling the window timeout, exporting and
// counting finished games.
func (srv *Server) afterEvent(code string) {
	sess, err := srv.Manager.Get(code)
	if err != nil {
		return
	}
	srv.emitStateTo(code)

	snap := sess.Snapshot()
	switch {
	case snap.Phase == game.PhaseActionWindow:
		srv.scheduleWindowTimeout(sess, snap.WindowRemaining)
	case snap.Verdict != nil:
		srv.onFinished(sess, snap)
	}
}

// scheduleWindowTimeout fires the elapsed event server-side so a closed
// browser tab cannot leave the window open. WindowElapsed itself checks
// the deadline, so a stale or duplicate firing is a no-op.
func (srv *Server) scheduleWindowTimeout(sess *game.Session, remaining float64) {
	delay := time.Duration(remaining*float64(time.Second)) + 100*time.Millisecond
	time.AfterFunc(delay, func() {
		err := sess.WindowElapsed()
		if err != nil {
			return
		}
		log.Info().Str("code", sess.Code).Msg("action window elapsed")
		srv.afterEvent(sess.Code)
	})
}

func (srv *Server) onFinished(sess *game.Session, snap game.Snapshot) {
	srv.mu.Lock()
	already := srv.exported[sess.Code]
	srv.exported[sess.Code] = true
	srv.mu.Unlock()
	if already {
		return
	}
	metrics.GamesFinished.WithLabelValues(string(snap.Verdict.Winner)).Inc()
	if srv.config.ExportEnabled {
		if err := game.ExportSession(sess, srv.config.ExportFile); err != nil {
			log.Error().Err(err).Str("code", sess.Code).Msg("failed to export game record")
		} else {
			log.Info().Str("code", sess.Code).Str("file", srv.config.ExportFile).Msg("exported game record")
		}
	}
}

func (srv *Server) session(s socketio.Conn) (*game.Session, bool) {
	ctx, _ := s.Context().(*ConnCtx)
	if ctx == nil || ctx.Code == "" {
		return nil, false
	}
	sess, err := srv.Manager.Get(ctx.Code)
	if err != nil {
		return nil, false
	}
	if ctx.Token != sess.HumanToken {
		return nil, false
	}
	return sess, true
}

func (srv *Server) code(s socketio.Conn) string {
	if ctx, _ := s.Context().(*ConnCtx); ctx != nil {
		return ctx.Code
	}
	return ""
}

func (srv *Server) addMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[code] == nil {
		srv.members[code] = make(map[string]socketio.Conn)
	}
	srv.members[code][c.ID()] = c
}

func (srv *Server) removeMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[code]; m != nil {
		delete(m, c.ID())
	}
}

func (srv *Server) emitStateTo(code string) {
	sess, err := srv.Manager.Get(code)
	if err != nil {
		return
	}
	snap := sess.Snapshot()
	srv.mu.Lock()
	conns := make([]socketio.Conn, 0, len(srv.members[code]))
	for _, c := range srv.members[code] {
		conns = append(conns, c)
	}
	srv.mu.Unlock()
	for _, c := range conns {
		c.Emit("game:state", snap)
	}
}

func (srv *Server) emitError(code, errCode, message string, retryable bool) {
	srv.mu.Lock()
	conns := make([]socketio.Conn, 0, len(srv.members[code]))
	for _, c := range srv.members[code] {
		conns = append(conns, c)
	}
	srv.mu.Unlock()
	for _, c := range conns {
		c.Emit("error", map[string]any{"code": errCode, "message": message, "retryable": retryable})
	}
}

func (srv *Server) err(s socketio.Conn, code, message string, retryable bool) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message, "retryable": retryable})
	return map[string]any{"error": message, "retryable": retryable}
}
