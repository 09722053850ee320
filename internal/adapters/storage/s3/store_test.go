package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/okian/isp/internal/adapters/storage"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = b
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store over a fake bucket", t, func() {
		api := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
		store := NewWithClient(api, "rosters", "/isp/")

		Convey("When an object is put and read back", func() {
			n, err := store.Put(ctx, "a.csv", "text/csv", bytes.NewReader([]byte("Name\n")))
			So(err, ShouldBeNil)
			So(n, ShouldEqual, int64(5))
			So(api.types["isp/a.csv"], ShouldEqual, "text/csv")

			rc, err := store.Open(ctx, "a.csv")
			So(err, ShouldBeNil)
			b, _ := io.ReadAll(rc)
			So(string(b), ShouldEqual, "Name\n")
		})

		Convey("When a missing object is opened", func() {
			_, err := store.Open(ctx, "missing.csv")
			So(errors.Is(err, storage.ErrNotFound), ShouldBeTrue)
		})

		Convey("When an object is deleted", func() {
			api.objects["isp/old.csv"] = []byte("x")
			So(store.Delete(ctx, "old.csv"), ShouldBeNil)
			So(api.objects, ShouldNotContainKey, "isp/old.csv")
		})
	})

	Convey("Given keys and prefixes", t, func() {
		So(applyPrefix("", "user/file.csv"), ShouldEqual, "user/file.csv")
		So(applyPrefix("root/", "user/file.csv"), ShouldEqual, "root/user/file.csv")
		So(applyPrefix("/root/", "/user/file.csv"), ShouldEqual, "root/user/file.csv")
		So(applyPrefix("root", ""), ShouldEqual, "root")
	})

	Convey("Given no bucket", t, func() {
		_, err := New(ctx, "us-east-1", " ", "")
		So(errors.Is(err, ErrMissingBucket), ShouldBeTrue)
	})
}
