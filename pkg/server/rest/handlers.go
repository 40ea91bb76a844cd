package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"lintang/routex/pkg/datastructure"
	"lintang/routex/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type NavigationService interface {
	NearestNode(ctx context.Context, lat, lon float64) (service.SnapResult, error)
	ShortestPath(ctx context.Context, from, to datastructure.NodeID, withoutTurnAround bool) (service.RouteResult, error)
	ShortestPathCoords(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64,
		withoutTurnAround bool) (service.RouteResult, error)
	Node(ctx context.Context, id datastructure.NodeID) (datastructure.Node, []datastructure.Edge, error)
}

type NavigationHandler struct {
	svc      NavigationService
	m        *Metrics
	validate *validator.Validate
	trans    ut.Translator
}

func NavigatorRouter(r *chi.Mux, svc NavigationService, m *Metrics) {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	validate := validator.New()
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	handler := &NavigationHandler{svc: svc, m: m, validate: validate, trans: trans}

	r.Group(func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Get("/nearest", handler.NearestNode)
			r.Get("/route", handler.ShortestPath)
			r.Get("/route/coords", handler.ShortestPathCoords)
			r.Get("/nodes/{id}", handler.Node)
		})
	})
}

// Coord model info
//
//	@Description	model untuk koordinat
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type NodeResponse struct {
	ID       int64   `json:"id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Distance float64 `json:"distance,omitempty"`
}

type EdgeResponse struct {
	ID     int32   `json:"id"`
	To     int64   `json:"to"`
	Cost   float64 `json:"cost"`
	Length float64 `json:"length"`
	WayID  int64   `json:"way_id"`
}

type NodeDetailResponse struct {
	NodeResponse
	Edges []EdgeResponse `json:"edges"`
}

// RouteResponse model info
//
//	@Description	response body untuk shortest path query
type RouteResponse struct {
	Path     string  `json:"path"`
	Nodes    []int64 `json:"nodes"`
	Coords   []Coord `json:"coords"`
	Cost     float64 `json:"cost"`
	Distance float64 `json:"distance"`
	Expanded int     `json:"expanded"`
}

func RenderRouteResponse(res service.RouteResult) *RouteResponse {
	resp := &RouteResponse{
		Path:     res.Path,
		Nodes:    make([]int64, 0, len(res.Nodes)),
		Coords:   make([]Coord, 0, len(res.Nodes)),
		Cost:     res.Cost,
		Distance: res.Length,
		Expanded: res.Expanded,
	}
	for _, n := range res.Nodes {
		resp.Nodes = append(resp.Nodes, int64(n.ID))
		resp.Coords = append(resp.Coords, Coord{Lat: n.Lat, Lon: n.Lon})
	}
	return resp
}

type NearestNodeRequest struct {
	Lat float64 `validate:"min=-90,max=90"`
	Lon float64 `validate:"min=-180,max=180"`
}

func (s *NearestNodeRequest) bind(r *http.Request) (err error) {
	if s.Lat, err = queryFloat(r, "lat"); err != nil {
		return err
	}
	s.Lon, err = queryFloat(r, "lon")
	return err
}

// NearestNode
//
//	@Summary		snap koordinat ke node road network terdekat
//	@Tags			navigations
//	@Param			lat	query	number	true	"latitude"
//	@Param			lon	query	number	true	"longitude"
//	@Produce		application/json
//	@Router			/nearest [get]
//	@Success		200	{object}	NodeResponse
//	@Failure		400	{object}	ErrResponse
func (h *NavigationHandler) NearestNode(w http.ResponseWriter, r *http.Request) {
	data := &NearestNodeRequest{}
	if err := data.bind(r); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !h.validateRequest(w, r, data) {
		return
	}

	snap, err := h.svc.NearestNode(r.Context(), data.Lat, data.Lon)
	if err != nil {
		render.Render(w, r, routingErrRenderer(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &NodeResponse{
		ID:       int64(snap.Node.ID),
		Lat:      snap.Node.Lat,
		Lon:      snap.Node.Lon,
		Distance: snap.Distance,
	})
}

type ShortestPathRequest struct {
	From              int64 `validate:"required"`
	To                int64 `validate:"required"`
	WithoutTurnAround bool
}

func (s *ShortestPathRequest) bind(r *http.Request) (err error) {
	if s.From, err = queryInt(r, "from"); err != nil {
		return err
	}
	if s.To, err = queryInt(r, "to"); err != nil {
		return err
	}
	s.WithoutTurnAround, err = queryBool(r, "without_turn_around")
	return err
}

// ShortestPath
//
//	@Summary		shortest path antara dua node id, memperhatikan oneway dan turn restriction
//	@Tags			navigations
//	@Param			from				query	int		true	"source node id"
//	@Param			to					query	int		true	"destination node id"
//	@Param			without_turn_around	query	bool	false	"larang putar balik"
//	@Produce		application/json
//	@Router			/route [get]
//	@Success		200	{object}	RouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		503	{object}	ErrResponse
func (h *NavigationHandler) ShortestPath(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if err := data.bind(r); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !h.validateRequest(w, r, data) {
		return
	}

	res, err := h.svc.ShortestPath(r.Context(), datastructure.NodeID(data.From), datastructure.NodeID(data.To),
		data.WithoutTurnAround)
	h.renderRoute(w, r, res, err)
}

type ShortestPathCoordsRequest struct {
	SrcLat            float64 `validate:"min=-90,max=90"`
	SrcLon            float64 `validate:"min=-180,max=180"`
	DstLat            float64 `validate:"min=-90,max=90"`
	DstLon            float64 `validate:"min=-180,max=180"`
	WithoutTurnAround bool
}

func (s *ShortestPathCoordsRequest) bind(r *http.Request) (err error) {
	params := []struct {
		key string
		dst *float64
	}{
		{"src_lat", &s.SrcLat},
		{"src_lon", &s.SrcLon},
		{"dst_lat", &s.DstLat},
		{"dst_lon", &s.DstLon},
	}
	for _, p := range params {
		if *p.dst, err = queryFloat(r, p.key); err != nil {
			return err
		}
	}
	s.WithoutTurnAround, err = queryBool(r, "without_turn_around")
	return err
}

// ShortestPathCoords
//
//	@Summary		shortest path antara dua koordinat, masing-masing di-snap ke node terdekat
//	@Tags			navigations
//	@Produce		application/json
//	@Router			/route/coords [get]
//	@Success		200	{object}	RouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) ShortestPathCoords(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathCoordsRequest{}
	if err := data.bind(r); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !h.validateRequest(w, r, data) {
		return
	}

	res, err := h.svc.ShortestPathCoords(r.Context(), data.SrcLat, data.SrcLon, data.DstLat, data.DstLon,
		data.WithoutTurnAround)
	h.renderRoute(w, r, res, err)
}

func (h *NavigationHandler) renderRoute(w http.ResponseWriter, r *http.Request, res service.RouteResult, err error) {
	if err != nil {
		rend := routingErrRenderer(err)
		if e, ok := rend.(*ErrResponse); ok && h.m != nil {
			h.m.routeErrors.WithLabelValues(strconv.Itoa(e.HTTPStatusCode)).Inc()
		}
		render.Render(w, r, rend)
		return
	}
	if h.m != nil {
		h.m.expanded.Observe(float64(res.Expanded))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRouteResponse(res))
}

// Node
//
//	@Summary		detail node beserta edge keluarnya
//	@Tags			navigations
//	@Param			id	path	int	true	"node id"
//	@Produce		application/json
//	@Router			/nodes/{id} [get]
//	@Success		200	{object}	NodeDetailResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) Node(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(fmt.Errorf("invalid node id %q", chi.URLParam(r, "id"))))
		return
	}

	n, edges, err := h.svc.Node(r.Context(), datastructure.NodeID(id))
	if err != nil {
		render.Render(w, r, routingErrRenderer(err))
		return
	}

	resp := &NodeDetailResponse{
		NodeResponse: NodeResponse{ID: int64(n.ID), Lat: n.Lat, Lon: n.Lon},
		Edges:        make([]EdgeResponse, 0, len(edges)),
	}
	for _, e := range edges {
		resp.Edges = append(resp.Edges, EdgeResponse{
			ID:     int32(e.ID),
			To:     int64(e.To),
			Cost:   e.Cost,
			Length: e.Length,
			WayID:  e.WayID,
		})
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *NavigationHandler) validateRequest(w http.ResponseWriter, r *http.Request, data interface{}) bool {
	if err := h.validate.Struct(data); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return false
	}
	return true
}

func queryFloat(r *http.Request, key string) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, fmt.Errorf("missing query parameter %s", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid query parameter %s: %w", key, err)
	}
	return f, nil
}

func queryInt(r *http.Request, key string) (int64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, fmt.Errorf("missing query parameter %s", key)
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid query parameter %s: %w", key, err)
	}
	return i, nil
}

func queryBool(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid query parameter %s: %w", key, err)
	}
	return b, nil
}
