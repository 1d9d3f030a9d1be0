package core

import (
	"go.uber.org/zap"
)

// AutoRoute queues after-phase routes for every loaded controller action and,
// once views are known, for every view no controller claims.
func AutoRoute(reg *Registry, bus *Bus, routes *Routes, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	for _, id := range reg.Controllers() {
		e, ok := reg.Entry(id)
		if !ok {
			continue
		}
		if e.Bare() {
			routes.Add(Route{Path: "/" + id, Target: ControllerAction{Controller: id}, Phase: PhaseAfter})
			continue
		}
		for _, actionID := range reg.Actions(id) {
			d := DetectVerb(actionID)
			target := ControllerAction{Controller: id, Action: actionID}
			if d.Original == DefaultAction {
				routes.Add(Route{Verb: d.Verb, Path: "/" + id, Target: target, Phase: PhaseAfter})
			}
			routes.Add(Route{Verb: d.Verb, Path: "/" + id + "/" + d.Original, Target: target, Phase: PhaseAfter})
		}
		log.Debug("auto-routed controller", zap.String("controller", id))
	}

	bus.After(EventViewsLoaded, func(payload any) {
		views, _ := payload.(map[string]View)
		for _, id := range sortedKeys(views) {
			if reg.IsController(id) {
				continue
			}
			v := views[id]
			if v.Bare {
				routes.Add(Route{Verb: "get", Path: "/" + id, Target: ControllerAction{Controller: id}, Phase: PhaseAfter})
				continue
			}
			for _, actionID := range v.Actions {
				target := ControllerAction{Controller: id, Action: actionID}
				if actionID == DefaultAction {
					routes.Add(Route{Verb: "get", Path: "/" + id, Target: target, Phase: PhaseAfter})
				}
				routes.Add(Route{Verb: "get", Path: "/" + id + "/" + actionID, Target: target, Phase: PhaseAfter})
			}
		}
	})
}
