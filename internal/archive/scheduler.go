package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"trade-backend/internal/config"
	"trade-backend/internal/models"
	"trade-backend/internal/timeutil"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ChallanLister is the slice of the challan store the exporter needs.
type ChallanLister interface {
	List(ctx context.Context, f *models.ChallanFilter) ([]models.FinishedGoodsChallan, error)
}

// Scheduler periodically exports the challan register as JSON to an
// S3-compatible bucket. Keeps an off-site copy of the dispatch history for
// audit; failures are logged and retried on the next tick.
type Scheduler struct {
	cfg    *config.Config
	lister ChallanLister

	mu     sync.Mutex
	ticker *time.Ticker
	stop   chan struct{}
}

func NewScheduler(cfg *config.Config, lister ChallanLister) *Scheduler {
	return &Scheduler{cfg: cfg, lister: lister}
}

// Start begins the export loop. No-op when archiving is not configured.
func (s *Scheduler) Start() {
	if !s.cfg.Archive.Enabled {
		log.Println("[Archive] Not configured, challan export disabled")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}

	interval := s.cfg.Archive.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	s.ticker = time.NewTicker(interval)
	s.stop = make(chan struct{})

	go func() {
		log.Printf("[Archive] Challan export scheduler started (interval: %v)", interval)
		s.runExport()

		for {
			select {
			case <-s.ticker.C:
				s.runExport()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the export loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.ticker = nil
	}
}

func (s *Scheduler) runExport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	challans, err := s.lister.List(ctx, &models.ChallanFilter{})
	if err != nil {
		log.Printf("[Archive] Failed to load challans: %v", err)
		return
	}

	data, err := json.Marshal(challans)
	if err != nil {
		log.Printf("[Archive] Failed to marshal challans: %v", err)
		return
	}

	client, err := s.newClient(ctx)
	if err != nil {
		log.Printf("[Archive] Failed to configure S3 client: %v", err)
		return
	}

	key := fmt.Sprintf("challans/fg_challans_%s.json", timeutil.Now().Format("20060102_150405"))

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Archive.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.Printf("[Archive] Failed to upload: %v", err)
		return
	}

	log.Printf("[Archive] Exported %d challan(s) to %s", len(challans), key)
}

func (s *Scheduler) newClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.Archive.AccessKey,
			s.cfg.Archive.SecretKey,
			"",
		)),
		awsconfig.WithRegion(s.cfg.Archive.Region),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.Archive.Endpoint)
	}), nil
}
