// internal/mlservice/sagemaker.go
package mlservice

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

// ErrEndpointNotFound 는 DescribeEndpoint 대상 endpoint 가 존재하지 않을 때 반환된다.
var ErrEndpointNotFound = errors.New("endpoint not found")

// 파이프라인이 분기하는 상태 값
const (
	TrainingCompleted = string(types.TrainingJobStatusCompleted)
	TrainingFailed    = string(types.TrainingJobStatusFailed)
	TrainingStopped   = string(types.TrainingJobStatusStopped)

	EndpointInService   = string(types.EndpointStatusInService)
	EndpointFailed      = string(types.EndpointStatusFailed)
	EndpointRollingBack = string(types.EndpointStatusRollingBack)
)

type sagemakerAPI interface {
	CreateTrainingJob(ctx context.Context, in *sagemaker.CreateTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTrainingJobOutput, error)
	DescribeTrainingJob(ctx context.Context, in *sagemaker.DescribeTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error)
	CreateModel(ctx context.Context, in *sagemaker.CreateModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error)
	CreateEndpointConfig(ctx context.Context, in *sagemaker.CreateEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error)
	DescribeEndpoint(ctx context.Context, in *sagemaker.DescribeEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error)
	CreateEndpoint(ctx context.Context, in *sagemaker.CreateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error)
	UpdateEndpoint(ctx context.Context, in *sagemaker.UpdateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.UpdateEndpointOutput, error)
}

// TrainingJobSpec 은 training job 제출에 필요한 값이다.
type TrainingJobSpec struct {
	Name            string
	Image           string
	RoleARN         string
	ManifestURI     string
	OutputPath      string
	InstanceType    string
	InstanceCount   int32
	VolumeSizeGB    int32
	MaxRuntime      time.Duration
	HyperParameters map[string]string
}

// TrainingJob 은 DescribeTrainingJob 결과 중 파이프라인이 쓰는 부분이다.
type TrainingJob struct {
	Name          string
	Status        string // InProgress | Completed | Failed | Stopping | Stopped
	FailureReason string
	OutputPath    string
}

// Endpoint 는 DescribeEndpoint 결과 중 파이프라인이 쓰는 부분이다.
type Endpoint struct {
	Name          string
	Status        string // Creating | Updating | InService | Failed | RollingBack ...
	FailureReason string
}

// VariantSpec 은 endpoint config 의 단일 production variant 이다.
type VariantSpec struct {
	Name          string
	InstanceType  string
	InstanceCount int32
}

// Client 는 SageMaker 학습/호스팅 API 의 얇은 wrapper 이다.
// 각 메서드는 API 1회 호출이며 호출마다 timeout 이 적용된다.
type Client struct {
	api     sagemakerAPI
	timeout time.Duration
}

func New(awsCfg aws.Config, timeout time.Duration) *Client {
	return newClient(sagemaker.NewFromConfig(awsCfg), timeout)
}

func newClient(api sagemakerAPI, timeout time.Duration) *Client {
	return &Client{api: api, timeout: timeout}
}

// StartTrainingJob 은 매니페스트 파일을 입력으로 하는 training job 을 제출한다.
// 입력 channel 은 "train", CSV, 압축 없음, File 모드로 고정이다.
func (c *Client) StartTrainingJob(ctx context.Context, spec TrainingJobSpec) error {
	ctx2, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.CreateTrainingJob(ctx2, &sagemaker.CreateTrainingJobInput{
		TrainingJobName: aws.String(spec.Name),
		HyperParameters: spec.HyperParameters,
		AlgorithmSpecification: &types.AlgorithmSpecification{
			TrainingImage:     aws.String(spec.Image),
			TrainingInputMode: types.TrainingInputModeFile,
		},
		RoleArn: aws.String(spec.RoleARN),
		InputDataConfig: []types.Channel{
			{
				ChannelName: aws.String("train"),
				DataSource: &types.DataSource{
					S3DataSource: &types.S3DataSource{
						S3DataType:             types.S3DataTypeManifestFile,
						S3Uri:                  aws.String(spec.ManifestURI),
						S3DataDistributionType: types.S3DataDistributionFullyReplicated,
					},
				},
				ContentType:     aws.String("text/csv"),
				CompressionType: types.CompressionTypeNone,
			},
		},
		OutputDataConfig: &types.OutputDataConfig{
			S3OutputPath: aws.String(spec.OutputPath),
		},
		ResourceConfig: &types.ResourceConfig{
			InstanceType:   types.TrainingInstanceType(spec.InstanceType),
			InstanceCount:  aws.Int32(spec.InstanceCount),
			VolumeSizeInGB: aws.Int32(spec.VolumeSizeGB),
		},
		StoppingCondition: &types.StoppingCondition{
			MaxRuntimeInSeconds: aws.Int32(int32(spec.MaxRuntime / time.Second)),
		},
	})
	if err != nil {
		return errors.Wrapf(err, "create training job %s", spec.Name)
	}
	return nil
}

func (c *Client) DescribeTrainingJob(ctx context.Context, name string) (TrainingJob, error) {
	ctx2, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.api.DescribeTrainingJob(ctx2, &sagemaker.DescribeTrainingJobInput{
		TrainingJobName: aws.String(name),
	})
	if err != nil {
		return TrainingJob{}, errors.Wrapf(err, "describe training job %s", name)
	}

	job := TrainingJob{
		Name:          name,
		Status:        string(out.TrainingJobStatus),
		FailureReason: aws.ToString(out.FailureReason),
	}
	if out.OutputDataConfig != nil {
		job.OutputPath = aws.ToString(out.OutputDataConfig.S3OutputPath)
	}
	return job, nil
}

// CreateModel 은 컨테이너 이미지와 모델 아티팩트를 묶은 model 리소스를 등록한다.
func (c *Client) CreateModel(ctx context.Context, name, image, modelDataURL, roleARN string) error {
	ctx2, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.CreateModel(ctx2, &sagemaker.CreateModelInput{
		ModelName: aws.String(name),
		PrimaryContainer: &types.ContainerDefinition{
			Image:        aws.String(image),
			ModelDataUrl: aws.String(modelDataURL),
		},
		ExecutionRoleArn: aws.String(roleARN),
	})
	if err != nil {
		return errors.Wrapf(err, "create model %s", name)
	}
	return nil
}

// CreateEndpointConfig 는 같은 이름의 model 을 가리키는 단일 variant 설정을 만든다.
func (c *Client) CreateEndpointConfig(ctx context.Context, name string, variant VariantSpec) error {
	ctx2, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.CreateEndpointConfig(ctx2, &sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(name),
		ProductionVariants: []types.ProductionVariant{
			{
				VariantName:          aws.String(variant.Name),
				ModelName:            aws.String(name),
				InitialInstanceCount: aws.Int32(variant.InstanceCount),
				InstanceType:         types.ProductionVariantInstanceType(variant.InstanceType),
			},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "create endpoint config %s", name)
	}
	return nil
}

// DescribeEndpoint 는 endpoint 상태를 조회한다.
// 존재하지 않으면 ErrEndpointNotFound 를, 그 외 실패는 원인 에러를 반환한다.
func (c *Client) DescribeEndpoint(ctx context.Context, name string) (Endpoint, error) {
	ctx2, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.api.DescribeEndpoint(ctx2, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(name),
	})
	if err != nil {
		if isEndpointNotFound(err) {
			return Endpoint{}, errors.Wrapf(ErrEndpointNotFound, "describe endpoint %s", name)
		}
		return Endpoint{}, errors.Wrapf(err, "describe endpoint %s", name)
	}
	return Endpoint{
		Name:          name,
		Status:        string(out.EndpointStatus),
		FailureReason: aws.ToString(out.FailureReason),
	}, nil
}

// EndpointExists 는 DescribeEndpoint 로 존재 여부를 확인한다.
// "없음" 이 확인된 경우에만 false 를 반환하고, 판단할 수 없으면 에러를 반환한다.
func (c *Client) EndpointExists(ctx context.Context, name string) (bool, error) {
	_, err := c.DescribeEndpoint(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrEndpointNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (c *Client) CreateEndpoint(ctx context.Context, endpoint, configName string) error {
	ctx2, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.CreateEndpoint(ctx2, &sagemaker.CreateEndpointInput{
		EndpointName:       aws.String(endpoint),
		EndpointConfigName: aws.String(configName),
	})
	if err != nil {
		return errors.Wrapf(err, "create endpoint %s", endpoint)
	}
	return nil
}

// UpdateEndpoint 는 기존 endpoint 를 새 config 로 교체한다.
// SageMaker 가 blue/green 으로 교체하며 실패 시 rollback 도 SageMaker 가 처리한다.
func (c *Client) UpdateEndpoint(ctx context.Context, endpoint, configName string) error {
	ctx2, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.UpdateEndpoint(ctx2, &sagemaker.UpdateEndpointInput{
		EndpointName:       aws.String(endpoint),
		EndpointConfigName: aws.String(configName),
	})
	if err != nil {
		return errors.Wrapf(err, "update endpoint %s", endpoint)
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// isEndpointNotFound
//
// SageMaker 는 없는 endpoint 에 대해 전용 에러 타입 없이
// ValidationException("Could not find endpoint ...") 을 반환한다.
func isEndpointNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "ValidationException" &&
		strings.Contains(apiErr.ErrorMessage(), "Could not find endpoint")
}
