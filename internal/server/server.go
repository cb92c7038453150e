package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"

	"tomgalvin.uk/calview/internal/calendar"
	"tomgalvin.uk/calview/internal/store"
	"tomgalvin.uk/calview/internal/weather"
)

const CalendarPath = "/luatos-calendar/v1"

// CalendarRequest is the query a device sends when it wakes up.
type CalendarRequest struct {
	Mac string `mapstructure:"mac"`
	// 0-100
	Battery uint8 `mapstructure:"battery"`
	// City ID, e.g. 101020100 for Shanghai.
	Location  string `mapstructure:"location"`
	AppID     string `mapstructure:"appid"`
	AppSecret string `mapstructure:"appsecret"`
}

type WeatherSource interface {
	Get(ctx context.Context, location string, appID string, appSecret string) (*weather.Weather, error)
}

type FrameRecorder interface {
	Record(ctx context.Context, f *store.Frame) error
}

type Server struct {
	logger   *slog.Logger
	renderer *calendar.Renderer
	weather  WeatherSource
	recorder FrameRecorder
	now      func() time.Time
}

// NewServer builds the calendar service. weather and recorder may be nil, in
// which case frames are drawn without weather and are not recorded.
func NewServer(logger *slog.Logger, renderer *calendar.Renderer, weather WeatherSource, recorder FrameRecorder) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:   logger,
		renderer: renderer,
		weather:  weather,
		recorder: recorder,
		now:      time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+CalendarPath, s.handleCalendar)
	return mux
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r.URL.Query())
	if err != nil {
		s.logger.Info("Rejected calendar request", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	info := calendar.Info{Now: s.now(), Battery: req.Battery}
	if s.weather != nil {
		info.Weather, err = s.weather.Get(ctx, req.Location, req.AppID, req.AppSecret)
		if err != nil {
			s.logger.Warn("Couldn't fetch weather, drawing frame without it", "location", req.Location, "err", err)
		}
	}

	frame, err := s.renderer.Frame(info)
	if err != nil {
		s.logger.Error("Couldn't draw frame", "err", err)
		http.Error(w, "couldn't draw frame", http.StatusInternalServerError)
		return
	}

	if s.recorder != nil {
		f := &store.Frame{
			Source:    store.SourceServed,
			Mac:       req.Mac,
			Battery:   int(req.Battery),
			Location:  req.Location,
			RowWidth:  s.renderer.RowWidthBytes(),
			CreatedAt: info.Now,
			Payload:   frame,
		}
		if err := s.recorder.Record(ctx, f); err != nil {
			s.logger.Error("Couldn't record served frame", "err", err)
		}
	}

	s.logger.Info("Served frame", "mac", req.Mac, "battery", req.Battery, "bytes", len(frame))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(frame)))
	w.WriteHeader(http.StatusOK)
	w.Write(frame)
}

func decodeRequest(q url.Values) (*CalendarRequest, error) {
	for _, key := range []string{"mac", "battery", "location", "appid", "appsecret"} {
		if !q.Has(key) {
			return nil, fmt.Errorf("missing query parameter %q", key)
		}
	}

	// WeakDecode reads an empty string as zero
	if q.Get("battery") == "" {
		return nil, errors.New("battery must not be empty")
	}

	flat := make(map[string]string, len(q))
	for k := range q {
		flat[k] = q.Get(k)
	}

	var req CalendarRequest
	if err := mapstructure.WeakDecode(flat, &req); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	if req.Battery > 100 {
		return nil, fmt.Errorf("battery must be between 0 and 100, got %d", req.Battery)
	}
	return &req, nil
}
