package devops

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterAPI is the part of *ssm.Client used to read parameters.
type ParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Connect creates an SSM client from the default AWS config chain.
func Connect(ctx context.Context) (ParameterAPI, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// LoadParameter returns the decrypted value of the named parameter.
func LoadParameter(ctx context.Context, client ParameterAPI, name string) (string, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// LoadYAML decodes the named parameter as YAML into out. Fields absent from the
// document keep their current values.
func LoadYAML(ctx context.Context, client ParameterAPI, name string, out any) error {
	value, err := LoadParameter(ctx, client, name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}
	return nil
}
