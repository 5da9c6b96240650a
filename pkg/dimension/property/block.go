package property

import (
	"context"

	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/metadata"
)

// TypeBlock is the type tag of block fields.
const TypeBlock = "block"

// DefaultMaxBlockDepth is the default nesting limit for blocks within blocks.
const DefaultMaxBlockDepth = 16

type blockDepthKey struct{}

func blockDepth(ctx context.Context) int {
	depth, _ := ctx.Value(blockDepthKey{}).(int)
	return depth
}

// BlockResolver resolves repeatable, typed groups of fields.
//
// Each entry is a map with a "type" key naming its block form. The form comes
// from the types declared on the field, or from the metadata resolver when the
// field declares none. Every declared field of the form is resolved through the
// field resolver, so blocks nest. Undeclared keys are dropped; entries without a
// known type are skipped.
type BlockResolver struct {
	fields dimension.FieldResolver
	forms  metadata.Resolver
	opts   options
}

// NewBlockResolver creates a block resolver. fields is normally the Provider
// the resolver is registered with; forms may be nil if every block field
// declares its types.
func NewBlockResolver(fields dimension.FieldResolver, forms metadata.Resolver, opts ...Option) *BlockResolver {
	return &BlockResolver{fields: fields, forms: forms, opts: newOptions(opts)}
}

func (r *BlockResolver) GetType() string { return TypeBlock }

func (r *BlockResolver) Resolve(ctx context.Context, data any, locale string, params dimension.Params) dimension.ContentView {
	cv, err := r.resolve(ctx, data, locale, params)
	return collapse(ctx, r.opts.logger, cv, err)
}

func (r *BlockResolver) resolve(ctx context.Context, data any, locale string, params dimension.Params) (dimension.ContentView, error) {
	empty := dimension.NewContentView([]any{}, nil)
	field := fieldMetadata(params)

	entries, ok := data.([]any)
	if !ok {
		if data == nil {
			return r.neutral(field), nil
		}
		return r.neutral(field), ignored(TypeBlock, "expected list, got %T", data)
	}

	depth := blockDepth(ctx)
	if depth >= r.opts.maxDepth {
		return empty, ignored(TypeBlock, "nesting exceeds %d levels", r.opts.maxDepth)
	}
	ctx = context.WithValue(ctx, blockDepthKey{}, depth+1)

	blocks := make([]any, 0, len(entries))
	for i, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			r.skip(ctx, i, "entry is not an object")
			continue
		}
		typ, ok := entry["type"].(string)
		if !ok || typ == "" {
			r.skip(ctx, i, "entry has no type")
			continue
		}
		form := r.blockForm(ctx, field, typ)
		if form == nil {
			r.skip(ctx, i, "unknown block type "+typ)
			continue
		}

		block := map[string]any{"type": typ}
		for _, f := range form.Fields() {
			f := f
			fieldParams := make(dimension.Params, len(f.Params)+1)
			for k, v := range f.Params {
				fieldParams[k] = v
			}
			fieldParams[dimension.ParamMetadata] = &f
			block[f.Name] = r.fields.Resolve(ctx, f.Type, entry[f.Name], locale, fieldParams)
		}
		blocks = append(blocks, block)
	}

	if field != nil && field.IsSingle() {
		if len(blocks) == 0 {
			return dimension.NewContentView(nil, nil), nil
		}
		return dimension.NewContentView(blocks[0], nil), nil
	}
	return dimension.NewContentView(blocks, nil), nil
}

func (r *BlockResolver) neutral(field *metadata.FieldMetadata) dimension.ContentView {
	if field != nil && field.IsSingle() {
		return dimension.NewContentView(nil, nil)
	}
	return dimension.NewContentView([]any{}, nil)
}

// blockForm returns the form of typ. Types declared on the field restrict the
// allowed set; without them the metadata resolver is asked.
func (r *BlockResolver) blockForm(ctx context.Context, field *metadata.FieldMetadata, typ string) *metadata.FormMetadata {
	if field != nil && len(field.Types) > 0 {
		return field.GetType(typ)
	}
	if r.forms == nil {
		return nil
	}
	form, err := r.forms.GetFormMetadata(ctx, typ)
	if err != nil {
		return nil
	}
	return form
}

func (r *BlockResolver) skip(ctx context.Context, index int, reason string) {
	r.opts.logger.DebugContext(ctx, "block entry skipped", "index", index, "reason", reason)
}
