package bedrock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm/bedrock"
)

type fakeConverse struct {
	in  *bedrockruntime.ConverseInput
	out *bedrockruntime.ConverseOutput
	err error
}

func (f *fakeConverse) Converse(ctx context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestGenerateJoinsTextBlocks(t *testing.T) {
	fake := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role: types.ConversationRoleAssistant,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: `{"vendor_name":`},
				&types.ContentBlockMemberText{Value: ` "Acme"}`},
			},
		}},
		StopReason: types.StopReasonEndTurn,
	}}
	c := bedrock.NewWithAPI(fake, "", nil)

	out, err := c.Generate(context.Background(), "prompt", llm.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, `{"vendor_name": "Acme"}`, out)

	require.NotNil(t, fake.in)
	assert.Equal(t, bedrock.DefaultModel, aws.ToString(fake.in.ModelId))
	assert.Equal(t, int32(2000), aws.ToInt32(fake.in.InferenceConfig.MaxTokens))
	require.Len(t, fake.in.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, fake.in.Messages[0].Role)
}

func TestGenerateWrapsErrors(t *testing.T) {
	boom := errors.New("throttled")
	c := bedrock.NewWithAPI(&fakeConverse{err: boom}, "m", nil)
	_, err := c.Generate(context.Background(), "prompt", llm.DefaultOptions())
	assert.ErrorIs(t, err, boom)
}
