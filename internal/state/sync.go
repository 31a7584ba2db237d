package state

import (
	"context"

	"go.uber.org/zap"

	"github.com/HerbHall/droidspec/internal/catalog"
	"github.com/HerbHall/droidspec/internal/event"
	"github.com/HerbHall/droidspec/internal/filter"
	"github.com/HerbHall/droidspec/internal/paginate"
)

// Follow subscribes s to catalog replacements. On every replacement the
// filter selection is reset to the new collection's neutral state, the page
// returns to 1, and the user catalog slot tracks whether the new data is
// user-supplied. Call it after the startup load so a restart keeps the saved
// selection. It returns the unsubscribe function.
func (s *Store) Follow(bus event.Subscriber, itemsPerPage int) (unsubscribe func()) {
	return bus.Subscribe(event.TopicCatalogReplaced, func(ctx context.Context, ev event.Event) {
		re, ok := ev.Payload.(catalog.ReplacedEvent)
		if !ok {
			return
		}
		s.onCatalogReplaced(context.WithoutCancel(ctx), re, itemsPerPage)
	})
}

func (s *Store) onCatalogReplaced(ctx context.Context, re catalog.ReplacedEvent, itemsPerPage int) {
	if err := s.SaveFilters(ctx, filter.DefaultState(re.Devices)); err != nil {
		s.logger.Error("reset filters after catalog change", zap.Error(err))
	}

	p, ok, err := s.Pagination(ctx)
	if err != nil || !ok {
		p = paginate.State{ItemsPerPage: itemsPerPage}
	}
	p.CurrentPage = 1
	if err := s.SavePagination(ctx, p.WithTotal(len(re.Devices))); err != nil {
		s.logger.Error("reset pagination after catalog change", zap.Error(err))
	}

	if re.Info.Source.UserSupplied() {
		err = s.SaveUpload(ctx, SavedCatalog{
			Source:  string(re.Info.Source),
			Origin:  re.Info.Origin,
			Devices: re.Devices,
		})
	} else {
		err = s.Delete(ctx, KeyUpload)
	}
	if err != nil {
		s.logger.Error("sync saved catalog", zap.Error(err))
	}
}

// Restore installs the saved user catalog, if any, into svc. It reports
// whether a catalog was restored.
func (s *Store) Restore(ctx context.Context, svc *catalog.Service) (bool, error) {
	c, ok, err := s.Upload(ctx)
	if err != nil || !ok {
		return false, err
	}
	source := catalog.Source(c.Source)
	if !source.UserSupplied() {
		source = catalog.SourceUpload
	}
	if _, err := svc.Replace(ctx, catalog.Load{Devices: c.Devices, Source: source, Origin: c.Origin}); err != nil {
		return false, err
	}
	return true, nil
}
