package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3KnowledgeBase implements KnowledgeBase backed by an S3 object
type S3KnowledgeBase struct {
	bucket string
	key    string
	s3     s3Getter
}

func NewS3KnowledgeBase(s3Client s3Getter, bucket, key string) *S3KnowledgeBase {
	return &S3KnowledgeBase{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

func (k *S3KnowledgeBase) Load(ctx context.Context) ([]byte, error) {
	resp, err := k.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(k.bucket),
		Key:    aws.String(k.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge base object from S3: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
