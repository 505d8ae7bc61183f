// Package mocks provides a testify mock of the volume driver for use
// in core and operation tests.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/strata-data/strata/pkg/model"
)

// VolumeDriver is a mock implementation of driver.VolumeDriver.
type VolumeDriver struct {
	mock.Mock
}

func (m *VolumeDriver) CreateVolumeSet(ctx context.Context, volumeSet string) error {
	args := m.Called(ctx, volumeSet)
	return args.Error(0)
}

func (m *VolumeDriver) DeleteVolumeSet(ctx context.Context, volumeSet string) error {
	args := m.Called(ctx, volumeSet)
	return args.Error(0)
}

func (m *VolumeDriver) CreateVolume(ctx context.Context, volumeSet, volume string, properties map[string]interface{}) (string, error) {
	args := m.Called(ctx, volumeSet, volume, properties)
	return args.String(0), args.Error(1)
}

func (m *VolumeDriver) DeleteVolume(ctx context.Context, volumeSet, volume string) error {
	args := m.Called(ctx, volumeSet, volume)
	return args.Error(0)
}

func (m *VolumeDriver) CommitVolumeSet(ctx context.Context, volumeSet, commitID string) error {
	args := m.Called(ctx, volumeSet, commitID)
	return args.Error(0)
}

func (m *VolumeDriver) CommitVolume(ctx context.Context, volumeSet, volume, commitID string, properties map[string]interface{}) error {
	args := m.Called(ctx, volumeSet, volume, commitID, properties)
	return args.Error(0)
}

func (m *VolumeDriver) CloneVolumeSet(ctx context.Context, sourceVolumeSet, commitID, newVolumeSet string) error {
	args := m.Called(ctx, sourceVolumeSet, commitID, newVolumeSet)
	return args.Error(0)
}

func (m *VolumeDriver) CloneVolume(ctx context.Context, sourceVolumeSet, commitID, newVolumeSet, volume string) (map[string]string, error) {
	args := m.Called(ctx, sourceVolumeSet, commitID, newVolumeSet, volume)
	mounts, _ := args.Get(0).(map[string]string)
	return mounts, args.Error(1)
}

func (m *VolumeDriver) GetCommitStatus(ctx context.Context, volumeSet, volume, commitID string) (model.CommitStatus, error) {
	args := m.Called(ctx, volumeSet, volume, commitID)
	status, _ := args.Get(0).(model.CommitStatus)
	return status, args.Error(1)
}

func (m *VolumeDriver) ExportCommit(ctx context.Context, volumeSet, commitID string) (io.ReadCloser, error) {
	args := m.Called(ctx, volumeSet, commitID)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *VolumeDriver) ImportCommit(ctx context.Context, volumeSet, commitID string, data io.Reader) error {
	args := m.Called(ctx, volumeSet, commitID, data)
	return args.Error(0)
}
