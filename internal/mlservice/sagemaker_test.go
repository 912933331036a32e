package mlservice

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSageMaker struct {
	sagemakerAPI

	training    *sagemaker.CreateTrainingJobInput
	describeJob *sagemaker.DescribeTrainingJobOutput
	endpointOut *sagemaker.DescribeEndpointOutput
	endpointErr error
}

func (f *fakeSageMaker) CreateTrainingJob(_ context.Context, in *sagemaker.CreateTrainingJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateTrainingJobOutput, error) {
	f.training = in
	return &sagemaker.CreateTrainingJobOutput{}, nil
}

func (f *fakeSageMaker) DescribeTrainingJob(_ context.Context, _ *sagemaker.DescribeTrainingJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error) {
	return f.describeJob, nil
}

func (f *fakeSageMaker) DescribeEndpoint(_ context.Context, _ *sagemaker.DescribeEndpointInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error) {
	if f.endpointErr != nil {
		return nil, f.endpointErr
	}
	return f.endpointOut, nil
}

func TestStartTrainingJobRequest(t *testing.T) {
	f := &fakeSageMaker{}
	c := newClient(f, time.Second)

	err := c.StartTrainingJob(context.Background(), TrainingJobSpec{
		Name:            "demand-2024-01-03T00-00-00Z",
		Image:           "img:latest",
		RoleARN:         "arn:aws:iam::1:role/sm",
		ManifestURI:     "s3://b/data/demand/train/manifest",
		OutputPath:      "s3://b/models/demand/",
		InstanceType:    "ml.m5.large",
		InstanceCount:   1,
		VolumeSizeGB:    50,
		MaxRuntime:      24 * time.Hour,
		HyperParameters: map[string]string{"feature_dim": "8"},
	})
	require.NoError(t, err)

	in := f.training
	require.NotNil(t, in)
	assert.Equal(t, "demand-2024-01-03T00-00-00Z", aws.ToString(in.TrainingJobName))
	assert.Equal(t, types.TrainingInputModeFile, in.AlgorithmSpecification.TrainingInputMode)
	require.Len(t, in.InputDataConfig, 1)
	ch := in.InputDataConfig[0]
	assert.Equal(t, "train", aws.ToString(ch.ChannelName))
	assert.Equal(t, types.S3DataTypeManifestFile, ch.DataSource.S3DataSource.S3DataType)
	assert.Equal(t, "s3://b/data/demand/train/manifest", aws.ToString(ch.DataSource.S3DataSource.S3Uri))
	assert.Equal(t, int32(86400), aws.ToInt32(in.StoppingCondition.MaxRuntimeInSeconds))
	assert.Equal(t, int32(50), aws.ToInt32(in.ResourceConfig.VolumeSizeInGB))
	assert.Equal(t, "8", in.HyperParameters["feature_dim"])
}

func TestDescribeTrainingJob(t *testing.T) {
	f := &fakeSageMaker{describeJob: &sagemaker.DescribeTrainingJobOutput{
		TrainingJobStatus: types.TrainingJobStatusFailed,
		FailureReason:     aws.String("ClientError: bad csv"),
		OutputDataConfig:  &types.OutputDataConfig{S3OutputPath: aws.String("s3://b/models/demand/")},
	}}
	job, err := newClient(f, 0).DescribeTrainingJob(context.Background(), "job")
	require.NoError(t, err)
	assert.Equal(t, "Failed", job.Status)
	assert.Equal(t, "ClientError: bad csv", job.FailureReason)
	assert.Equal(t, "s3://b/models/demand/", job.OutputPath)
}

func TestEndpointExists(t *testing.T) {
	ctx := context.Background()

	f := &fakeSageMaker{endpointOut: &sagemaker.DescribeEndpointOutput{EndpointStatus: types.EndpointStatusInService}}
	ok, err := newClient(f, 0).EndpointExists(ctx, "demand")
	require.NoError(t, err)
	assert.True(t, ok)

	f = &fakeSageMaker{endpointErr: &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: `Could not find endpoint "arn:aws:sagemaker:us-west-2:1:endpoint/demand".`,
	}}
	ok, err = newClient(f, 0).EndpointExists(ctx, "demand")
	require.NoError(t, err)
	assert.False(t, ok)

	f = &fakeSageMaker{endpointErr: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "Rate exceeded"}}
	_, err = newClient(f, 0).EndpointExists(ctx, "demand")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEndpointNotFound)
}
