package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"retrain-pipeline/internal/dataset"
	"retrain-pipeline/internal/logger"
	"retrain-pipeline/internal/model"
	"retrain-pipeline/internal/naming"
	"retrain-pipeline/internal/store"

	"golang.org/x/sync/errgroup"
)

const manifestContentType = "text/plain"

// checkData
//
// 최근 INTERVAL 일 동안 올라온 일별 CSV 를 찾아 watermark 와 비교한다.
//   - 파일이 없거나 최신 날짜 <= watermark : no_new_data=true, 매니페스트를 쓰지 않음
//   - 그 외 : 찾은 파일로 매니페스트를 만들어 덮어쓰고 다음 step 정보를 채움
func (h *Handlers) checkData(ctx context.Context, ev model.Event) (model.Event, error) {
	log := logger.Step(model.StepCheckData)
	layout := naming.Layout{Bucket: h.cfg.Bucket, ModelPrefix: h.cfg.ModelPrefix}

	dates := dataset.Window(h.now(), h.cfg.IntervalDays)
	found, err := h.probeFiles(ctx, layout, dataset.Filenames(dates))
	if err != nil {
		return ev, err
	}
	latest, hasData := dataset.Latest(found)

	param := layout.WatermarkParam()
	watermark, ok, err := h.deps.Params.Get(ctx, param)
	if err != nil {
		return ev, err
	}
	if !ok {
		log.Info().Str("param", param).Msg("no watermark yet, treating every file as new")
	}

	ev.Endpoint = h.cfg.ModelPrefix
	ev.LastTrainParam = param

	if !hasData || latest <= watermark {
		atomic.AddInt64(&h.metrics.SkippedNoNewDataTotal, 1)
		ev.NoNewData = true
		ev.Message = fmt.Sprintf("No new data uploaded for model %q since last training run (%s). Skipping training until next scheduled run.",
			h.cfg.ModelPrefix, watermarkLabel(watermark))
		return ev, nil
	}

	body, err := model.Manifest{Prefix: layout.TrainSetPath(), Keys: found}.Encode()
	if err != nil {
		return ev, err
	}
	if err := h.deps.Objects.Put(ctx, layout.ManifestKey(), body, manifestContentType); err != nil {
		return ev, err
	}
	atomic.AddInt64(&h.metrics.ManifestsWrittenTotal, 1)

	ev.NoNewData = false
	ev.TrainManifestURI = layout.ManifestURI()
	ev.S3OutputPath = layout.OutputPath()
	ev.LatestDataUpload = latest
	ev.Message = fmt.Sprintf("Found %d new data file(s) up to %s for model %q", len(found), latest, h.cfg.ModelPrefix)
	return ev, nil
}

// probeFiles 는 파일명마다 HeadObject 를 호출해 존재하는 것만 입력 순서대로 반환한다.
//
// probe 끼리는 순서 의존성이 없으므로 PROBE_CONCURRENCY 만큼 병렬로 실행하고,
// 결과는 index 슬롯에 기록해 순서를 보존한다.
// 판단 불가(Indeterminate) 결과는 STRICT_PROBES 가 아니면 부재로 취급한다.
func (h *Handlers) probeFiles(ctx context.Context, layout naming.Layout, names []string) ([]string, error) {
	log := logger.Step(model.StepCheckData)
	results := make([]store.Presence, len(names))

	limit := h.cfg.ProbeConcurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			key := layout.DataKey(name)
			p, err := h.deps.Objects.Exists(gctx, key)
			atomic.AddInt64(&h.metrics.ObjectProbesTotal, 1)
			results[i] = p

			switch p {
			case store.Absent:
				log.Debug().Str("key", key).Msg("object not found, not adding it to the manifest")
			case store.Indeterminate:
				atomic.AddInt64(&h.metrics.ObjectProbesIndeterminateTotal, 1)
				if h.cfg.StrictProbes {
					return err
				}
				log.Warn().Err(err).Str("key", key).Msg("cannot determine object existence, not adding it to the manifest")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	found := make([]string, 0, len(names))
	for i, p := range results {
		if p == store.Present {
			found = append(found, names[i])
		}
	}
	return found, nil
}

func watermarkLabel(w string) string {
	if w == "" {
		return "never"
	}
	return w
}
