package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chip-table/internal/config"
	"chip-table/internal/logging"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type apiError struct {
	Status int
	Code   string
}

func (e *apiError) Error() string { return fmt.Sprintf("%d %s", e.Status, e.Code) }

type client struct {
	base string
	http *http.Client
}

func (c *client) post(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &apiError{Status: resp.StatusCode, Code: e.Error}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &client{base: strings.TrimRight(cfg.TableURL, "/"), http: &http.Client{Timeout: 10 * time.Second}}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL(c.base), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("dial table stream failed")
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	if err := join(ctx, c, cfg); err != nil {
		log.Fatal().Err(err).Msg("join table failed")
	}
	defer leave(c, cfg.PlayerID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("table stream closed")
			}
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &base); err != nil {
			continue
		}
		log.Info().Str("type", base.Type).RawJSON("message", data).Msg("table message")
		if base.Type == "round_ended" && cfg.Deal {
			deal(ctx, c)
		}
	}
}

func join(ctx context.Context, c *client, cfg config.BotConfig) error {
	if err := c.post(ctx, "/api/table/sit", map[string]any{"player_id": cfg.PlayerID, "seat": cfg.Seat}, nil); err != nil {
		return fmt.Errorf("sit: %w", err)
	}
	if cfg.BuyIn > 0 {
		if err := c.post(ctx, "/api/table/buy_in", map[string]any{"player_id": cfg.PlayerID, "amount": cfg.BuyIn}, nil); err != nil {
			return fmt.Errorf("buy_in: %w", err)
		}
	}
	log.Info().Str("player_id", cfg.PlayerID).Int("seat", cfg.Seat).Int64("buy_in", cfg.BuyIn).Msg("seated")
	if cfg.Deal {
		deal(ctx, c)
	}
	return nil
}

func deal(ctx context.Context, c *client) {
	var out struct {
		RoundID string `json:"round_id"`
	}
	if err := c.post(ctx, "/api/table/deal", struct{}{}, &out); err != nil {
		log.Debug().Err(err).Msg("deal rejected")
		return
	}
	log.Info().Str("round_id", out.RoundID).Msg("dealt")
}

// leave cashes out and frees the seat on the way out. Both calls may fail
// while a round is still running.
func leave(c *client, playerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	body := map[string]any{"player_id": playerID}
	if err := c.post(ctx, "/api/table/cash_out", body, nil); err != nil {
		log.Warn().Err(err).Msg("cash_out failed")
	}
	if err := c.post(ctx, "/api/table/leave", body, nil); err != nil {
		log.Warn().Err(err).Msg("leave failed")
	}
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	default:
		return base + "/ws"
	}
}
