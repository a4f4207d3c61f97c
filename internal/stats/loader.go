package stats

import (
	"context"
	"errors"
	"net/http"
	"time"

	"crime_news/internal/logger"
	"crime_news/internal/models"
)

// Source - откуда взято распределение.
type Source string

const (
	SourceRemote Source = "Live API"
	SourceLocal  Source = "Local CSV"
	SourceNone   Source = "None"
)

// Status - итог обращения к одному источнику.
type Status string

const (
	StatusOK      Status = "ok"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome описывает, чем закончилось обращение к источнику и почему.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Result - распределение вместе с признаком живого источника и итогами обоих путей.
type Result struct {
	Distribution models.Distribution `json:"distribution"`
	Live         bool                `json:"live"`
	Source       Source              `json:"source"`
	Remote       Outcome             `json:"remote"`
	Local        Outcome             `json:"local"`
	LocalPath    string              `json:"local_path,omitempty"`
}

// Options - настройки загрузчика.
type Options struct {
	RemoteURL string
	APIKey    string
	Limit     int
	LocalFile string
	DataDir   string
	FileMatch string
	Timeout   time.Duration
}

// Loader получает эталонное распределение: сначала удалённо, затем из локального файла.
type Loader struct {
	opts   Options
	client *http.Client
	log    *logger.Entry
}

func NewLoader(opts Options, client *http.Client, log *logger.Entry) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Limit <= 0 {
		opts.Limit = 1000
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		log = logger.Component("stats")
	}
	return &Loader{opts: opts, client: client, log: log}
}

// Load никогда не возвращает ошибку: отказ обоих путей даёт пустое распределение,
// а причины лежат в Result.Remote и Result.Local.
func (l *Loader) Load(ctx context.Context) Result {
	res := Result{Source: SourceNone}

	dist, err := l.FetchRemote(ctx)
	switch {
	case errors.Is(err, ErrNoAPIKey):
		res.Remote = Outcome{Status: StatusSkipped, Reason: err.Error()}
	case err != nil:
		l.log.Warnf("Remote statistics unavailable: %v", err)
		res.Remote = Outcome{Status: StatusFailed, Reason: err.Error()}
	case len(dist) == 0:
		res.Remote = Outcome{Status: StatusEmpty, Reason: "no rows for known categories"}
	default:
		res.Remote = Outcome{Status: StatusOK}
		res.Distribution = dist
		res.Live = true
		res.Source = SourceRemote
		res.Local = Outcome{Status: StatusSkipped}
		return res
	}

	dist, path, err := l.LoadLocal()
	res.LocalPath = path
	switch {
	case err != nil:
		l.log.WithField("path", path).Infof("Local statistics unavailable: %v", err)
		res.Local = Outcome{Status: StatusFailed, Reason: err.Error()}
	case len(dist) == 0:
		res.Local = Outcome{Status: StatusEmpty, Reason: "no usable rows"}
	default:
		res.Local = Outcome{Status: StatusOK}
		res.Distribution = dist
		res.Source = SourceLocal
	}

	if res.Distribution == nil {
		res.Distribution = models.Distribution{}
	}
	return res
}
