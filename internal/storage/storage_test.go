package storage

import (
	"errors"
	"testing"

	"bloodbank/internal/config"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStorage(config.Config{StorageLocalDir: dir})
	require.NoError(t, err)
	local, ok := store.(*LocalStorage)
	require.True(t, ok)
	assert.Equal(t, dir, local.LocalBaseDir())

	store, err = NewStorage(config.Config{
		StorageType:              "S3",
		StorageS3Bucket:          "backups",
		StorageS3Region:          "eu-west-1",
		StorageS3AccessKeyID:     "ak",
		StorageS3SecretAccessKey: "sk",
		StorageS3Prefix:          "/bloodbank/",
	})
	require.NoError(t, err)
	remote, ok := store.(*remoteS3Storage)
	require.True(t, ok)
	assert.Equal(t, "bloodbank", remote.prefix)

	_, err = NewStorage(config.Config{StorageType: "ftp"})
	assert.Error(t, err)
}

func TestRemoteStorageRequiresSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"s3 bucket", config.Config{StorageType: TypeS3}},
		{"s3 credentials", config.Config{StorageType: TypeS3, StorageS3Bucket: "b", StorageS3Region: "r"}},
		{"oss endpoint", config.Config{StorageType: TypeOSS}},
		{"oss credentials", config.Config{StorageType: TypeOSS, StorageOSSEndpoint: "oss-cn-hangzhou.aliyuncs.com", StorageOSSBucket: "b"}},
		{"cos url", config.Config{StorageType: TypeCOS}},
		{"cos credentials", config.Config{StorageType: TypeCOS, StorageCOSBucketURL: "https://b.cos.ap-guangzhou.myqcloud.com"}},
		{"r2 bucket", config.Config{StorageType: TypeR2}},
		{"r2 endpoint", config.Config{StorageType: TypeR2, StorageR2Bucket: "b", StorageR2AccessKeyID: "ak", StorageR2SecretAccessKey: "sk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStorage(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestR2Endpoint(t *testing.T) {
	got, err := r2Endpoint("", "acct")
	require.NoError(t, err)
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com", got)

	got, err = r2Endpoint(" https://r2.example.com/ ", "acct")
	require.NoError(t, err)
	assert.Equal(t, "https://r2.example.com", got)

	_, err = r2Endpoint("", "")
	assert.Error(t, err)
}

func TestIsS3NotFound(t *testing.T) {
	assert.False(t, isS3NotFound(nil))
	assert.True(t, isS3NotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.True(t, isS3NotFound(errors.New("operation error S3: HeadObject, https response error StatusCode: 404, status code: 404")))
	assert.False(t, isS3NotFound(errors.New("access denied")))
}
