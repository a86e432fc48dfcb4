package workload

import (
	"strings"
	"text/template"
)

// Session settings shared by every workload: batch mode plus the REST
// endpoint the SQL client should target. The REST settings are injected by
// the submitter, not here, so rendered SQL stays endpoint-independent and
// cacheable.
const preamble = `SET 'execution.runtime-mode' = 'batch';
SET 'parallelism.default' = '{{.Parallelism}}';
`

const identitySQL = preamble + `
CREATE TABLE source_table (
    id BIGINT,
    data STRING
) WITH (
    'connector' = 'datagen',
    'number-of-rows' = '{{.Records}}',
    'fields.id.kind' = 'sequence',
    'fields.id.start' = '1',
    'fields.id.end' = '{{.Records}}',
    'fields.data.length' = '100'
);

CREATE TABLE sink_table (
    id BIGINT,
    data STRING
) WITH (
    'connector' = 'blackhole'
);

INSERT INTO sink_table SELECT * FROM source_table;
`

const wordCountSQL = preamble + `
CREATE TABLE source_table (
    id BIGINT,
    word_id INT
) WITH (
    'connector' = 'datagen',
    'number-of-rows' = '{{.Records}}',
    'fields.id.kind' = 'sequence',
    'fields.id.start' = '1',
    'fields.id.end' = '{{.Records}}',
    'fields.word_id.kind' = 'random',
    'fields.word_id.min' = '0',
    'fields.word_id.max' = '{{.MaxWordID}}'
);

CREATE TABLE sink_table (
    word_id INT,
    cnt BIGINT
) WITH (
    'connector' = 'blackhole'
);

INSERT INTO sink_table
SELECT word_id, COUNT(*) as cnt
FROM source_table
GROUP BY word_id;
`

const windowSQL = preamble + `
CREATE TABLE source_table (
    id BIGINT,
    word_id INT,
    amount DOUBLE
) WITH (
    'connector' = 'datagen',
    'number-of-rows' = '{{.Records}}',
    'fields.id.kind' = 'sequence',
    'fields.id.start' = '1',
    'fields.id.end' = '{{.Records}}',
    'fields.word_id.kind' = 'random',
    'fields.word_id.min' = '0',
    'fields.word_id.max' = '{{.MaxWordID}}',
    'fields.amount.kind' = 'random',
    'fields.amount.min' = '0',
    'fields.amount.max' = '1000'
);

CREATE TABLE sink_table (
    window_id BIGINT,
    word_id INT,
    total_amount DOUBLE,
    cnt BIGINT
) WITH (
    'connector' = 'blackhole'
);

INSERT INTO sink_table
SELECT
    FLOOR(id / {{.WindowSpan}}) as window_id,
    word_id,
    SUM(amount) as total_amount,
    COUNT(*) as cnt
FROM source_table
GROUP BY
    FLOOR(id / {{.WindowSpan}}),
    word_id;
`

var (
	identityTmpl  = template.Must(template.New(Identity).Parse(identitySQL))
	wordCountTmpl = template.Must(template.New(WordCount).Parse(wordCountSQL))
	windowTmpl    = template.Must(template.New(Window).Parse(windowSQL))
)

// templateData flattens Params into the fields the templates consume.
type templateData struct {
	Records     int64
	Parallelism int
	MaxWordID   int
	WindowSpan  int64
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderIdentity(p Params) (string, error) {
	return render(identityTmpl, templateData{
		Records:     p.Records,
		Parallelism: p.Parallelism,
	})
}

func renderWordCount(p Params) (string, error) {
	buckets := p.Buckets
	if buckets <= 0 {
		buckets = DefaultWordBuckets
	}
	return render(wordCountTmpl, templateData{
		Records:     p.Records,
		Parallelism: p.Parallelism,
		MaxWordID:   buckets - 1,
	})
}

func renderWindow(p Params) (string, error) {
	buckets := p.Buckets
	if buckets <= 0 {
		buckets = DefaultWindowBuckets
	}
	span := p.WindowSpan
	if span <= 0 {
		span = DefaultWindowSpan
	}
	return render(windowTmpl, templateData{
		Records:     p.Records,
		Parallelism: p.Parallelism,
		MaxWordID:   buckets - 1,
		WindowSpan:  span,
	})
}
