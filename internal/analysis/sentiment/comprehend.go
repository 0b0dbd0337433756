package sentiment

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"
)

// comprehendAPI is the slice of the Comprehend client the oracle uses
type comprehendAPI interface {
	BatchDetectSentiment(ctx context.Context, params *comprehend.BatchDetectSentimentInput, optFns ...func(*comprehend.Options)) (*comprehend.BatchDetectSentimentOutput, error)
}

// ComprehendOracle scores texts with AWS Comprehend
type ComprehendOracle struct {
	client comprehendAPI
}

// NewComprehendOracle loads AWS configuration from the environment and verifies
// credentials can be resolved. Returns ErrOracleNotConfigured otherwise.
func NewComprehendOracle(ctx context.Context, region string) (*ComprehendOracle, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load AWS config: %v", ErrOracleNotConfigured, err)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: no AWS region", ErrOracleNotConfigured)
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("%w: no AWS credentials provider", ErrOracleNotConfigured)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to retrieve AWS credentials: %v", ErrOracleNotConfigured, err)
	}

	return &ComprehendOracle{client: comprehend.NewFromConfig(cfg)}, nil
}

// BatchDetectSentiment implements Oracle
func (o *ComprehendOracle) BatchDetectSentiment(ctx context.Context, texts []string, languageCode string) (*BatchResult, error) {
	out, err := o.client.BatchDetectSentiment(ctx, &comprehend.BatchDetectSentimentInput{
		TextList:     texts,
		LanguageCode: types.LanguageCode(languageCode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call comprehend: %w", err)
	}

	result := &BatchResult{
		Results: make([]ItemResult, 0, len(out.ResultList)),
		Errors:  make([]ItemError, 0, len(out.ErrorList)),
	}
	for _, r := range out.ResultList {
		item := ItemResult{
			Index: int(aws.ToInt32(r.Index)),
			Label: Label(r.Sentiment),
		}
		if s := r.SentimentScore; s != nil {
			item.Scores = Scores{
				Positive: float64(aws.ToFloat32(s.Positive)),
				Negative: float64(aws.ToFloat32(s.Negative)),
				Neutral:  float64(aws.ToFloat32(s.Neutral)),
				Mixed:    float64(aws.ToFloat32(s.Mixed)),
			}
		}
		result.Results = append(result.Results, item)
	}
	for _, e := range out.ErrorList {
		result.Errors = append(result.Errors, ItemError{
			Index:   int(aws.ToInt32(e.Index)),
			Code:    aws.ToString(e.ErrorCode),
			Message: aws.ToString(e.ErrorMessage),
		})
	}
	return result, nil
}
