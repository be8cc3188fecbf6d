package kiroku

import "time"

// Generation is a leaf record of one model invocation. It carries no id of
// its own beyond the trace back-reference and cannot nest further units.
type Generation struct {
	client       *Client
	traceID      string
	name         string
	subjectID    string
	start        time.Time
	model        string
	provider     string
	input        any
	output       any
	inputTokens  *int
	outputTokens *int
	httpStatus   int
	baseURL      string
	metadata     map[string]any
	props        map[string]string
	isError      bool
	errVal       *ErrorValue
}

func newGeneration(client *Client, traceID, subjectID string, inherited map[string]string, params GenerationParams) (*Generation, error) {
	if params.Name == "" {
		return nil, ErrMissingName
	}
	if params.Input == nil {
		return nil, ErrMissingInput
	}
	if subjectID == "" {
		return nil, ErrSubjectContract
	}

	return &Generation{
		client:       client,
		traceID:      traceID,
		name:         params.Name,
		subjectID:    subjectID,
		start:        now(),
		model:        params.Model,
		provider:     params.Provider,
		input:        params.Input,
		output:       params.Output,
		inputTokens:  params.InputTokens,
		outputTokens: params.OutputTokens,
		httpStatus:   params.HTTPStatus,
		baseURL:      params.BaseURL,
		metadata:     mergeMetadata(nil, params.Metadata),
		props:        mergeProperties(inherited, params.Properties),
	}, nil
}

// Update merges params into the generation and returns it for chaining.
func (g *Generation) Update(params GenerationParams) *Generation {
	if params.Name != "" {
		g.name = params.Name
	}
	if params.Model != "" {
		g.model = params.Model
	}
	if params.Provider != "" {
		g.provider = params.Provider
	}
	if params.Input != nil {
		g.input = params.Input
	}
	if params.Output != nil {
		g.output = params.Output
	}
	if params.InputTokens != nil {
		g.inputTokens = params.InputTokens
	}
	if params.OutputTokens != nil {
		g.outputTokens = params.OutputTokens
	}
	if params.HTTPStatus != 0 {
		g.httpStatus = params.HTTPStatus
	}
	if params.BaseURL != "" {
		g.baseURL = params.BaseURL
	}
	if len(params.Metadata) > 0 {
		g.metadata = mergeMetadata(g.metadata, params.Metadata)
	}
	if len(params.Properties) > 0 {
		g.props = mergeProperties(g.props, params.Properties)
	}
	if params.Error != nil {
		g.errVal = params.Error
		if params.IsError == nil {
			g.isError = true
		}
	}
	if params.IsError != nil {
		g.isError = *params.IsError
	}
	return g
}

// End applies final overrides, computes the duration, and emits one
// generation_event. Not guarded against repetition.
func (g *Generation) End(params GenerationParams) *Generation {
	g.Update(params)
	latency := elapsedSeconds(g.start, params.Latency)
	g.client.capture(g.subjectID, EventGeneration, g.eventProperties(latency))
	return g
}

func (g *Generation) eventProperties(latency float64) map[string]any {
	p := map[string]any{
		"trace_id": g.traceID,
		"name":     g.name,
		"model":    g.model,
		"provider": g.provider,
		"latency":  latency,
		"is_error": g.isError,
	}
	putPayload(p, "input", g.input)
	if g.output != nil {
		p["output"] = serialize(wrapOutput(g.output))
	}
	if g.inputTokens != nil {
		p["input_tokens"] = *g.inputTokens
	}
	if g.outputTokens != nil {
		p["output_tokens"] = *g.outputTokens
	}
	if g.httpStatus != 0 {
		p["http_status"] = g.httpStatus
	}
	if g.baseURL != "" {
		p["base_url"] = g.baseURL
	}
	putMetadata(p, g.metadata)
	putError(p, g.isError, g.errVal)
	putCustom(p, g.props)
	return p
}

// Embedding is a leaf record of one embedding invocation: a generation
// minus the output payload and output token count. Its input is the text,
// or list of texts, that was embedded.
type Embedding struct {
	client      *Client
	traceID     string
	name        string
	subjectID   string
	start       time.Time
	model       string
	provider    string
	input       any
	inputTokens *int
	httpStatus  int
	baseURL     string
	metadata    map[string]any
	props       map[string]string
	isError     bool
	errVal      *ErrorValue
}

func newEmbedding(client *Client, traceID, subjectID string, inherited map[string]string, params EmbeddingParams) (*Embedding, error) {
	if params.Name == "" {
		return nil, ErrMissingName
	}
	if params.Input == nil {
		return nil, ErrMissingInput
	}
	if subjectID == "" {
		return nil, ErrSubjectContract
	}

	return &Embedding{
		client:      client,
		traceID:     traceID,
		name:        params.Name,
		subjectID:   subjectID,
		start:       now(),
		model:       params.Model,
		provider:    params.Provider,
		input:       params.Input,
		inputTokens: params.InputTokens,
		httpStatus:  params.HTTPStatus,
		baseURL:     params.BaseURL,
		metadata:    mergeMetadata(nil, params.Metadata),
		props:       mergeProperties(inherited, params.Properties),
	}, nil
}

// Update merges params into the embedding and returns it for chaining.
func (e *Embedding) Update(params EmbeddingParams) *Embedding {
	if params.Name != "" {
		e.name = params.Name
	}
	if params.Model != "" {
		e.model = params.Model
	}
	if params.Provider != "" {
		e.provider = params.Provider
	}
	if params.Input != nil {
		e.input = params.Input
	}
	if params.InputTokens != nil {
		e.inputTokens = params.InputTokens
	}
	if params.HTTPStatus != 0 {
		e.httpStatus = params.HTTPStatus
	}
	if params.BaseURL != "" {
		e.baseURL = params.BaseURL
	}
	if len(params.Metadata) > 0 {
		e.metadata = mergeMetadata(e.metadata, params.Metadata)
	}
	if len(params.Properties) > 0 {
		e.props = mergeProperties(e.props, params.Properties)
	}
	if params.Error != nil {
		e.errVal = params.Error
		if params.IsError == nil {
			e.isError = true
		}
	}
	if params.IsError != nil {
		e.isError = *params.IsError
	}
	return e
}

// End applies final overrides, computes the duration, and emits one
// embedding_event. Not guarded against repetition.
func (e *Embedding) End(params EmbeddingParams) *Embedding {
	e.Update(params)
	latency := elapsedSeconds(e.start, params.Latency)
	e.client.capture(e.subjectID, EventEmbedding, e.eventProperties(latency))
	return e
}

func (e *Embedding) eventProperties(latency float64) map[string]any {
	p := map[string]any{
		"trace_id": e.traceID,
		"name":     e.name,
		"model":    e.model,
		"provider": e.provider,
		"latency":  latency,
		"is_error": e.isError,
	}
	putPayload(p, "input", e.input)
	if e.inputTokens != nil {
		p["input_tokens"] = *e.inputTokens
	}
	if e.httpStatus != 0 {
		p["http_status"] = e.httpStatus
	}
	if e.baseURL != "" {
		p["base_url"] = e.baseURL
	}
	putMetadata(p, e.metadata)
	putError(p, e.isError, e.errVal)
	putCustom(p, e.props)
	return p
}
